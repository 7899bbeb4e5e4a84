package view

import (
	"html/template"

	"github.com/muurk/wifipanel/internal/wifiapi"
)

var propertiesTmpl = template.Must(template.New("properties").Parse(
	`{{range .}}<dt>{{.Name}}</dt><dd>{{.Text}}</dd>{{end}}`))

// Properties renders one term/definition pair per status property, in the
// order given.
func Properties(status wifiapi.Status) template.HTML {
	return execute(propertiesTmpl, status)
}
