package view

import "html/template"

// Snack style contexts.
const (
	ContextNone   = ""
	ContextText   = "text"
	ContextDanger = "text-danger"
)

// Snackbar is the transient message area.
type Snackbar struct {
	Message string
	Context string
}

// Empty reports whether no message is shown.
func (s Snackbar) Empty() bool {
	return s.Message == ""
}

var snackTmpl = template.Must(template.New("snack").Parse(
	`<p id="message" class="message{{if .Context}} {{.Context}}{{end}}" role="status">{{.Message}}</p>`))

// SnackMarkup renders the message element with its optional style class.
func SnackMarkup(s Snackbar) template.HTML {
	return execute(snackTmpl, s)
}
