package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Journal is an append-only file of events, one JSON object per line. It
// lets short-lived CLI invocations see each other's history.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal returns a journal at path. The file is created on first
// append.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file.
func (j *Journal) Path() string { return j.path }

// Append writes ev as one line.
func (j *Journal) Append(ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// Read returns the last limit events, oldest first, optionally only those
// of one server. A missing journal reads as empty. Lines that cannot be
// decoded are skipped.
func (j *Journal) Read(name string, limit int) ([]Event, error) {
	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open event journal: %w", err)
	}
	defer f.Close()

	out := []Event{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if name != "" && ev.Name != name {
			continue
		}
		out = append(out, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event journal: %w", err)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
