// Package server serves the WiFi panel over HTTP.
//
// The full page is rendered on GET / and every region can be fetched on its
// own from /fragments/{region}. Row actions and named actions are plain HTML
// forms, so the panel works without JavaScript: each POST redirects back to
// the page. The embedded panel.js upgrades this by submitting forms with fetch
// and by patching regions pushed over /ws.
//
// # Websocket patches
//
// Each websocket client subscribes to the panel controller. On connect the
// server sends every region; afterwards only regions whose markup changed are
// sent, one JSON message per region:
//
//	{"region":"saved","html":"<table id=\"saved\" ...>...</table>"}
//
// The client replaces the element with the same id. Pings are sent every
// pingPeriod and a client that misses pongWait is dropped.
//
// # Fetch callers
//
// Requests carrying the X-Panel-Fetch header get 204 No Content on success,
// or an error status with a JSON body, instead of a redirect.
package server
