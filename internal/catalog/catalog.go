package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"mcpdeck/internal/api"
	"mcpdeck/pkg/logging"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"
)

// Source names reported in CatalogUnavailableError.
const (
	SourceBuiltin = "builtin"
)

// catalogFile is the on-disk shape of a user-provided catalog.
type catalogFile struct {
	Templates []api.ServerTemplate `yaml:"templates"`
}

// Catalog serves server templates and answers installed-state questions
// against the host configuration. Templates are loaded and rendered once per
// Catalog; installed state is read from the store on every call.
type Catalog struct {
	store api.ConfigStore
	path  string

	mu        sync.Mutex
	loaded    bool
	templates []api.ServerTemplate
}

// New creates a catalog. An empty path selects the built-in templates.
func New(store api.ConfigStore, path string) *Catalog {
	return &Catalog{store: store, path: path}
}

// Source returns the catalog file path, or "builtin".
func (c *Catalog) Source() string {
	if c.path == "" {
		return SourceBuiltin
	}
	return c.path
}

// ListTemplates returns all templates in catalog order. The returned slice
// is a copy; callers may not mutate the catalog through it.
func (c *Catalog) ListTemplates(ctx context.Context) ([]api.ServerTemplate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		templates, err := c.load()
		if err != nil {
			return nil, &api.CatalogUnavailableError{Source: c.Source(), Err: err}
		}
		c.templates = templates
		c.loaded = true
		logging.Debug("Catalog", "Loaded %d templates from %s", len(templates), c.Source())
	}

	out := make([]api.ServerTemplate, len(c.templates))
	for i, t := range c.templates {
		out[i] = cloneTemplate(t)
	}
	return out, nil
}

// Get returns the template named name.
func (c *Catalog) Get(ctx context.Context, name string) (api.ServerTemplate, error) {
	templates, err := c.ListTemplates(ctx)
	if err != nil {
		return api.ServerTemplate{}, err
	}
	for _, t := range templates {
		if t.Name == name {
			return t, nil
		}
	}
	return api.ServerTemplate{}, api.NewTemplateNotFoundError(name)
}

// IsInstalled reports whether the host configuration has an entry named
// name. It is never cached, so installs made by other tools are visible.
func (c *Catalog) IsInstalled(ctx context.Context, name string) (bool, error) {
	cfg, err := c.store.ReadConfig(ctx)
	if err != nil {
		return false, err
	}
	return cfg.Has(name), nil
}

func (c *Catalog) load() ([]api.ServerTemplate, error) {
	raw := builtinTemplates
	if c.path != "" {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return nil, err
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		raw = f.Templates
	}

	seen := make(map[string]bool, len(raw))
	out := make([]api.ServerTemplate, 0, len(raw))
	for i, t := range raw {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("template %d has no name", i)
		}
		if t.Command == "" {
			return nil, fmt.Errorf("template %s has no command", t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate template name %s", t.Name)
		}
		seen[t.Name] = true

		rendered, err := render(t)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", t.Name, err)
		}
		out = append(out, rendered)
	}
	return out, nil
}

// render expands template expressions in args and env defaults.
func render(t api.ServerTemplate) (api.ServerTemplate, error) {
	out := cloneTemplate(t)
	if out.ID == "" {
		out.ID = out.Name
	}
	for i, a := range out.Args {
		v, err := renderString(a)
		if err != nil {
			return api.ServerTemplate{}, fmt.Errorf("arg %d: %w", i, err)
		}
		out.Args[i] = v
	}
	for k, d := range out.Env {
		v, err := renderString(d)
		if err != nil {
			return api.ServerTemplate{}, fmt.Errorf("env %s: %w", k, err)
		}
		out.Env[k] = v
	}
	return out, nil
}

func renderString(s string) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	tmpl, err := template.New("value").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(s)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func cloneTemplate(t api.ServerTemplate) api.ServerTemplate {
	out := t
	if t.Args != nil {
		out.Args = append([]string(nil), t.Args...)
	}
	if t.Env != nil {
		out.Env = make(map[string]string, len(t.Env))
		for k, v := range t.Env {
			out.Env[k] = v
		}
	}
	return out
}
