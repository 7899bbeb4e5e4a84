// Package view renders the WiFi panel as HTML.
//
// Every function here is a pure function of its arguments: it never fetches
// and never mutates shared state. The panel controller owns a PageState and
// calls Page or Fragment after every change; the web server ships the result
// to the browser, replacing whole regions by id.
package view
