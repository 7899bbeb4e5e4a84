// Package logging holds the process-wide zap logger.
//
// The logger is silent until Initialize is given a level, directly or through
// WIFIPANEL_LOG_LEVEL. Device API calls log at debug (warn on failure), served
// HTTP requests and websocket connections at info.
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Entries go to stderr so commands printing JSON to stdout stay parseable.
package logging
