package formatting

import (
	"encoding/json"
	"fmt"

	"mcpdeck/internal/events"
	"mcpdeck/internal/view"
)

// JSONFormatter writes indented JSON.
type JSONFormatter struct {
	options Options
}

func (f *JSONFormatter) View(v view.View) error                 { return f.Object(v) }
func (f *JSONFormatter) Servers(rows []view.ServerRow) error     { return f.Object(nonNil(rows)) }
func (f *JSONFormatter) Templates(rows []view.TemplateRow) error { return f.Object(nonNil(rows)) }
func (f *JSONFormatter) Events(evts []events.Event) error         { return f.Object(nonNil(evts)) }

func (f *JSONFormatter) Object(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(f.options.Out, string(b))
	return err
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
