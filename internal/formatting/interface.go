// Package formatting renders mcpdeck views, rows and events for the CLI.
//
// Every formatter writes to Options.Out. Table output is meant for people;
// JSON and YAML output carries the same fields as the view types' json tags
// and is stable enough to script against.
package formatting

import (
	"fmt"
	"io"
	"os"

	"mcpdeck/internal/events"
	"mcpdeck/internal/view"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatWide  OutputFormat = "wide"  // Table with extra columns
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ValidFormats lists the accepted --output values.
var ValidFormats = []OutputFormat{FormatTable, FormatWide, FormatJSON, FormatYAML}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatTable, FormatWide, FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (valid: table, wide, json, yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format    OutputFormat
	NoHeaders bool      // Suppress table headers
	Color     bool      // Enable colored output
	Out       io.Writer // Defaults to os.Stdout
}

// Formatter renders mcpdeck data.
type Formatter interface {
	View(v view.View) error
	Servers(rows []view.ServerRow) error
	Templates(rows []view.TemplateRow) error
	Events(evts []events.Event) error

	// Object renders any other value, such as the raw host configuration.
	Object(v interface{}) error
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	if options.Out == nil {
		options.Out = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options}
	case FormatYAML:
		return &YAMLFormatter{options: options}
	default:
		return &TableFormatter{options: options}
	}
}
