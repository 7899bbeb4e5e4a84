// Package tui implements the terminal front end of the WiFi panel.
//
// It presents the same panel state as the web page: the status properties,
// the saved networks and the scan result, the named action buttons and the
// transient message. The model subscribes to the panel controller and
// re-renders whenever the controller publishes a new state, so scheduled
// refreshes show up without any input.
//
// Keys:
//
//	↑/k ↓/j   move the row cursor
//	tab       switch between the saved and available tables
//	enter     remove the saved network, or prompt for a password and add
//	s         run the scan action
//	S         run the start action (stops the device soft-AP)
//	r         refresh both tables
//	q         quit
//
// The table helpers (TableString, SavedTable, ScannedTable, StatusList) are
// also used by the one-shot CLI commands.
package tui
