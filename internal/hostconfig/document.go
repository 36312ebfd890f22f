package hostconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mcpdeck/internal/api"
)

const (
	keyServers        = "mcpServers"
	keyGlobalShortcut = "globalShortcut"
)

// document is the host configuration file decoded just far enough to edit
// the fields mcpdeck owns. Everything else is carried through verbatim.
type document struct {
	top     map[string]json.RawMessage
	servers map[string]json.RawMessage
}

func emptyDocument() *document {
	return &document{
		top:     map[string]json.RawMessage{},
		servers: map[string]json.RawMessage{},
	}
}

func decodeDocument(data []byte) (*document, error) {
	doc := emptyDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc.top); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.top == nil {
		doc.top = map[string]json.RawMessage{}
	}
	if raw, ok := doc.top[keyServers]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &doc.servers); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keyServers, err)
		}
	}
	if doc.servers == nil {
		doc.servers = map[string]json.RawMessage{}
	}
	return doc, nil
}

func (d *document) config() (api.HostConfig, error) {
	cfg := api.HostConfig{Servers: make(map[string]api.InstalledServerEntry, len(d.servers))}
	for name, raw := range d.servers {
		var entry api.InstalledServerEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return api.HostConfig{}, fmt.Errorf("decode entry %s: %w", name, err)
		}
		cfg.Servers[name] = entry
	}
	if raw, ok := d.top[keyGlobalShortcut]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &cfg.GlobalShortcut); err != nil {
			return api.HostConfig{}, fmt.Errorf("decode %s: %w", keyGlobalShortcut, err)
		}
	}
	return cfg, nil
}

// setEntry writes the known entry fields over any existing record so that
// fields added by the host application survive.
func (d *document) setEntry(name string, entry api.InstalledServerEntry) error {
	fields := map[string]json.RawMessage{}
	if existing, ok := d.servers[name]; ok {
		if err := json.Unmarshal(existing, &fields); err != nil || fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}

	args := entry.Args
	if args == nil {
		args = []string{}
	}
	if err := setField(fields, "command", entry.Command); err != nil {
		return err
	}
	if err := setField(fields, "args", args); err != nil {
		return err
	}
	if len(entry.Env) > 0 {
		if err := setField(fields, "env", entry.Env); err != nil {
			return err
		}
	} else {
		delete(fields, "env")
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	d.servers[name] = raw
	return nil
}

func (d *document) deleteEntry(name string) bool {
	if _, ok := d.servers[name]; !ok {
		return false
	}
	delete(d.servers, name)
	return true
}

func (d *document) setGlobalShortcut(value string) error {
	return setField(d.top, keyGlobalShortcut, value)
}

func (d *document) encode() ([]byte, error) {
	if err := setField(d.top, keyServers, d.servers); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(d.top, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func setField(m map[string]json.RawMessage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m[key] = raw
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
