package formatting

import (
	"fmt"

	"mcpdeck/internal/events"
	"mcpdeck/internal/view"

	"sigs.k8s.io/yaml"
)

// YAMLFormatter writes YAML. Field names follow the json tags of the
// rendered types.
type YAMLFormatter struct {
	options Options
}

func (f *YAMLFormatter) View(v view.View) error                 { return f.Object(v) }
func (f *YAMLFormatter) Servers(rows []view.ServerRow) error     { return f.Object(nonNil(rows)) }
func (f *YAMLFormatter) Templates(rows []view.TemplateRow) error { return f.Object(nonNil(rows)) }
func (f *YAMLFormatter) Events(evts []events.Event) error         { return f.Object(nonNil(evts)) }

func (f *YAMLFormatter) Object(v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err = f.options.Out.Write(b)
	return err
}
