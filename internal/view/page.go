package view

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/muurk/wifipanel/internal/wifiapi"
)

// Region ids. Each region is a whole element that can be replaced on its own.
const (
	RegionStatus    = "status"
	RegionSaved     = "saved"
	RegionAvailable = "available"
	RegionMessage   = "message"
)

// Regions returns the region ids in page order.
func Regions() []string {
	return []string{RegionStatus, RegionSaved, RegionAvailable, RegionMessage}
}

// CaptionLayout formats the last update time of a table.
const CaptionLayout = "15:04:05"

// PageState is everything a render needs. Render functions never fetch.
type PageState struct {
	Title   string
	Actions []string

	// Loaded is false until the startup fetch succeeded; regions stay empty
	// until then.
	Loaded bool

	Status         wifiapi.Status
	Saved          []wifiapi.SavedNetwork
	Scanned        []wifiapi.ScannedNetwork
	SavedUpdated   time.Time
	ScannedUpdated time.Time

	Snack Snackbar
}

// Caption returns the table caption for an update time.
func Caption(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return "Last update " + t.Local().Format(CaptionLayout)
}

// ActionLabel returns the button label of a named action.
func ActionLabel(name string) string {
	switch name {
	case wifiapi.ActionStart:
		return "Start"
	case wifiapi.ActionScan:
		return "Scan"
	}
	return name
}

var emptyRegionTmpl = template.Must(template.New("empty").Parse(
	`<table id="{{.}}" class="{{.}}"></table>`))

var statusTmpl = template.Must(template.New("status").Parse(
	`<section id="status" class="status"><dl>{{.}}</dl></section>`))

// Fragment renders one region of the page.
func Fragment(state PageState, region string) (template.HTML, error) {
	switch region {
	case RegionStatus:
		var props template.HTML
		if state.Loaded {
			props = Properties(state.Status)
		}
		return execute(statusTmpl, props), nil
	case RegionSaved:
		if !state.Loaded {
			return execute(emptyRegionTmpl, RegionSaved), nil
		}
		return Table(RegionSaved, SavedRows(state.Saved), RemoveAction, Caption(state.SavedUpdated)), nil
	case RegionAvailable:
		if !state.Loaded {
			return execute(emptyRegionTmpl, RegionAvailable), nil
		}
		return Table(RegionAvailable, ScannedRows(state.Scanned), AddAction, Caption(state.ScannedUpdated)), nil
	case RegionMessage:
		return SnackMarkup(state.Snack), nil
	}
	return "", fmt.Errorf("unknown region %q", region)
}

type actionButton struct {
	Name  string
	Label string
}

type pageData struct {
	Title     string
	Buttons   []actionButton
	Status    template.HTML
	Saved     template.HTML
	Available template.HTML
	Message   template.HTML
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>{{.Title}}</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 1rem auto; max-width: 60rem; padding: 0 1rem; }
    nav form { display: inline; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
    caption { text-align: left; color: #666; font-size: .85rem; }
    th, td { text-align: left; padding: .25rem .5rem; border-bottom: 1px solid #ddd; }
    td form { margin: 0; }
    button.link { background: none; border: 0; color: #06c; cursor: pointer; padding: 0; text-decoration: underline; }
    dl { display: grid; grid-template-columns: max-content auto; gap: .25rem 1rem; }
    dt { font-weight: 600; }
    .message { min-height: 1.5em; }
    .text { color: #333; }
    .text-danger { color: #c00; }
  </style>
  <script src="/static/panel.js" defer></script>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <nav>{{range .Buttons}}<form method="post" action="/actions/{{.Name}}"><button type="submit" data-value="{{.Name}}">{{.Label}}</button></form> {{end}}</nav>
    {{.Message}}
  </header>
  <main>
    <h2>Status</h2>
    {{.Status}}
    <h2>Saved networks</h2>
    {{.Saved}}
    <h2>Available networks</h2>
    {{.Available}}
  </main>
</body>
</html>
`))

// DefaultTitle is used when PageState.Title is empty.
const DefaultTitle = "WiFi"

// WritePage renders the complete document to w.
func WritePage(w io.Writer, state PageState) error {
	data := pageData{Title: state.Title}
	if data.Title == "" {
		data.Title = DefaultTitle
	}
	for _, name := range state.Actions {
		data.Buttons = append(data.Buttons, actionButton{Name: name, Label: ActionLabel(name)})
	}

	// Fragment cannot fail for the known regions
	data.Status, _ = Fragment(state, RegionStatus)
	data.Saved, _ = Fragment(state, RegionSaved)
	data.Available, _ = Fragment(state, RegionAvailable)
	data.Message, _ = Fragment(state, RegionMessage)

	return pageTmpl.Execute(w, data)
}

// Page renders the complete document.
func Page(state PageState) template.HTML {
	var b strings.Builder
	if err := WritePage(&b, state); err != nil {
		return ""
	}
	return template.HTML(b.String())
}

var promptTmpl = template.Must(template.New("prompt").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Password for {{.SSID}}</title>
</head>
<body>
  <form method="post" action="/available/add">
    <input type="hidden" name="key" value="{{.SSID}}">
    <input type="hidden" name="command" value="add">
    <label for="password">Password for {{.SSID}}</label>
    <input type="password" id="password" name="password" autofocus>
    {{if .Error}}<p class="message text-danger">{{.Error}}</p>{{end}}
    <button type="submit">add</button>
    <a href="/">cancel</a>
  </form>
</body>
</html>
`))

// WriteAddPrompt renders the password form for adding ssid. errMsg, when set,
// is shown under the field.
func WriteAddPrompt(w io.Writer, ssid, errMsg string) error {
	return promptTmpl.Execute(w, struct {
		SSID  string
		Error string
	}{ssid, errMsg})
}
