package view

import (
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
)

// StrengthColumn is the only column whose value is emitted as markup.
const StrengthColumn = "strength"

// Cell is one named value of a table row.
type Cell struct {
	Name  string
	Value any
}

// Row is a table row. Key identifies the row when its action is submitted.
type Row struct {
	Key   string
	Cells []Cell
}

// Action is the per-row control. Submitting it sends the row key and Command
// to Path using Method.
type Action struct {
	Label   string
	Command string
	Method  string
	Path    string
}

// RemoveAction deletes a saved network by id.
var RemoveAction = Action{Label: "remove", Command: "remove", Method: "post", Path: "/saved/remove"}

// AddAction asks for a password and saves a scanned network.
var AddAction = Action{Label: "add", Command: "add", Method: "get", Path: "/available/add"}

// RowCount returns the footer text for n rows.
func RowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

type tableRow struct {
	Key   string
	Cells []any
}

type tableData struct {
	ID      string
	Caption string
	Headers []string
	Rows    []tableRow
	Action  Action
	Footer  string
}

var tableTmpl = template.Must(template.New("table").Parse(
	`<table id="{{.ID}}" class="{{.ID}}">` +
		`<caption>{{.Caption}}</caption>` +
		`<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}<th></th></tr></thead>` +
		`<tbody>{{range $row := .Rows}}<tr>` +
		`{{range $row.Cells}}<td>{{.}}</td>{{end}}` +
		`<td><form method="{{$.Action.Method}}" action="{{$.Action.Path}}" data-command="{{$.Action.Command}}">` +
		`<input type="hidden" name="key" value="{{$row.Key}}">` +
		`<input type="hidden" name="command" value="{{$.Action.Command}}">` +
		`<button type="submit" class="link">{{$.Action.Label}}</button></form></td>` +
		`</tr>{{end}}</tbody>` +
		`<tfoot><tr><td>{{.Footer}}</td></tr></tfoot>` +
		`</table>`))

// Table renders a complete table: headers come from the first row's column
// names, every row gets a trailing action cell, and the footer counts rows.
// Cell values are escaped except the strength column.
func Table(id string, rows []Row, action Action, caption string) template.HTML {
	data := tableData{
		ID:      id,
		Caption: caption,
		Action:  action,
		Footer:  RowCount(len(rows)),
		Rows:    make([]tableRow, 0, len(rows)),
	}

	if len(rows) > 0 {
		for _, c := range rows[0].Cells {
			data.Headers = append(data.Headers, c.Name)
		}
	}

	for _, r := range rows {
		tr := tableRow{Key: r.Key, Cells: make([]any, 0, len(r.Cells))}
		for _, c := range r.Cells {
			tr.Cells = append(tr.Cells, cellValue(c))
		}
		data.Rows = append(data.Rows, tr)
	}

	return execute(tableTmpl, data)
}

func cellValue(c Cell) any {
	if c.Name == StrengthColumn {
		if h, ok := c.Value.(template.HTML); ok {
			return h
		}
		return template.HTML(fmt.Sprint(c.Value))
	}
	if h, ok := c.Value.(template.HTML); ok {
		// only the strength column may carry markup
		return string(h)
	}
	return fmt.Sprint(c.Value)
}

func execute(t *template.Template, data any) template.HTML {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		logging.Error("Failed to render template", zap.String("template", t.Name()), zap.Error(err))
		return ""
	}
	return template.HTML(b.String())
}
