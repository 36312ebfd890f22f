package formatting

import (
	"fmt"
	"strings"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/view"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxCellWidth = 60

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

func (f *TableFormatter) wide() bool { return f.options.Format == FormatWide }

// View renders the shortcut followed by the configured and available tables.
func (f *TableFormatter) View(v view.View) error {
	shortcut := v.GlobalShortcut
	if shortcut == "" {
		shortcut = "(none)"
	}
	fmt.Fprintf(f.options.Out, "%s %s\n\n", f.paint(text.FgHiBlue, "Global shortcut:"), shortcut)

	fmt.Fprintln(f.options.Out, f.paint(text.Bold, "Configured servers"))
	if err := f.Servers(v.Configured); err != nil {
		return err
	}
	fmt.Fprintln(f.options.Out)
	fmt.Fprintln(f.options.Out, f.paint(text.Bold, "Available templates"))
	return f.Templates(v.Available)
}

// Servers renders configured entries.
func (f *TableFormatter) Servers(rows []view.ServerRow) error {
	if len(rows) == 0 {
		f.empty("No servers configured")
		return nil
	}

	t := f.createTable()
	header := table.Row{"NAME", "STATUS", "COMMAND", "PATH"}
	if f.wide() {
		header = append(header, "ARGS", "ENV", "CATALOG", "ERROR")
	}
	f.appendHeader(t, header)

	for _, r := range rows {
		path := r.Path
		if r.PendingPath != "" {
			path = fmt.Sprintf("%s -> %s", path, r.PendingPath)
		}
		row := table.Row{r.Name, f.status(r.Running, r.Phase, r.LastError), r.Command, Truncate(path, maxCellWidth)}
		if f.wide() {
			row = append(row,
				Truncate(strings.Join(r.Args, " "), maxCellWidth),
				Truncate(FormatEnv(r.Env), maxCellWidth),
				yesNo(r.FromCatalog),
				Truncate(r.LastError, maxCellWidth))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// Templates renders catalog templates with install readiness.
func (f *TableFormatter) Templates(rows []view.TemplateRow) error {
	if len(rows) == 0 {
		f.empty("No templates available")
		return nil
	}

	t := f.createTable()
	header := table.Row{"NAME", "STATE", "DESCRIPTION", "NEEDS"}
	if f.wide() {
		header = append(header, "COMMAND", "ENV", "REPO")
	}
	f.appendHeader(t, header)

	for _, r := range rows {
		state := "available"
		switch {
		case r.Phase.Busy():
			state = string(r.Phase)
		case r.Installed:
			state = "installed"
		}
		row := table.Row{r.Name, state, Truncate(r.Description, maxCellWidth), needs(r)}
		if f.wide() {
			row = append(row,
				Truncate(r.Command+" "+strings.Join(r.Args, " "), maxCellWidth),
				strings.Join(r.EnvKeys, ","),
				r.RepoURL)
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// Events renders an event history, oldest first.
func (f *TableFormatter) Events(evts []events.Event) error {
	if len(evts) == 0 {
		f.empty("No events recorded")
		return nil
	}

	t := f.createTable()
	f.appendHeader(t, table.Row{"TIME", "TYPE", "REASON", "SERVER", "MESSAGE"})
	for _, e := range evts {
		typ := string(e.Type)
		if e.Type == events.EventTypeWarning {
			typ = f.paint(text.FgYellow, typ)
		}
		t.AppendRow(table.Row{e.Time.Format(time.TimeOnly), typ, string(e.Reason), e.Name, Truncate(e.Message, maxCellWidth*2)})
	}
	t.Render()
	return nil
}

// Object renders arbitrary values as indented JSON.
func (f *TableFormatter) Object(v interface{}) error {
	_, err := fmt.Fprintln(f.options.Out, PrettyJSON(v))
	return err
}

// EventLine renders a single event for streaming output.
func EventLine(e events.Event) string {
	name := e.Name
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%s %-7s %-20s %-16s %s", e.Time.Format(time.TimeOnly), e.Type, e.Reason, name, e.Message)
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) appendHeader(t table.Writer, header table.Row) {
	if f.options.NoHeaders {
		return
	}
	for i, h := range header {
		header[i] = f.paint(text.FgHiCyan, fmt.Sprint(h))
	}
	t.AppendHeader(header)
}

func (f *TableFormatter) status(running bool, phase api.Phase, lastError string) string {
	switch {
	case phase.Busy():
		return f.paint(text.FgYellow, string(phase))
	case lastError != "":
		if running {
			return f.paint(text.FgRed, "running (error)")
		}
		return f.paint(text.FgRed, "stopped (error)")
	case running:
		return f.paint(text.FgGreen, "running")
	default:
		return "stopped"
	}
}

func (f *TableFormatter) empty(message string) {
	fmt.Fprintf(f.options.Out, "%s\n", f.paint(text.FgYellow, message))
}

func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func needs(r view.TemplateRow) string {
	var parts []string
	if r.MissingPath {
		parts = append(parts, "path")
	}
	if len(r.MissingEnv) > 0 {
		parts = append(parts, "env: "+strings.Join(r.MissingEnv, ","))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
