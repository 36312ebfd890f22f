package hostconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/pkg/logging"

	"github.com/gofrs/flock"
)

const (
	backupSuffix = ".backup"
	lockSuffix   = ".lock"

	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// ErrLockTimeout is returned when another process holds the config lock for
// longer than the lock timeout.
var ErrLockTimeout = errors.New("timed out waiting for host config lock")

// Store reads and edits the host application's JSON configuration file.
//
// Every mutation runs under an in-process mutex and a cross-process file
// lock, copies the current file to <path>.backup, writes the new document
// to a temporary file and renames it into place. If the write fails the
// backup is copied back.
type Store struct {
	path        string
	lockTimeout time.Duration

	mu sync.Mutex

	// rename is swapped in tests to simulate a failing write.
	rename func(oldpath, newpath string) error
}

// New creates a store for the file at path. The file need not exist.
func New(path string) *Store {
	return &Store{
		path:        path,
		lockTimeout: defaultLockTimeout,
		rename:      os.Rename,
	}
}

// Path returns the host configuration file path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the path of the pre-mutation backup.
func (s *Store) BackupPath() string { return s.path + backupSuffix }

// Exists reports whether the configuration file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// ReadConfig returns the current entries and global shortcut. A missing file
// reads as an empty configuration.
func (s *Store) ReadConfig(ctx context.Context) (api.HostConfig, error) {
	doc, err := s.readDocument()
	if err != nil {
		return api.HostConfig{}, err
	}
	cfg, err := doc.config()
	if err != nil {
		return api.HostConfig{}, &api.ConfigIOError{Op: "read", Path: s.path, Err: err}
	}
	return cfg, nil
}

// WriteEntry creates or replaces the entry named name.
func (s *Store) WriteEntry(ctx context.Context, name string, entry api.InstalledServerEntry) error {
	return s.mutate(ctx, "write entry "+name, func(doc *document) error {
		return doc.setEntry(name, entry)
	})
}

// DeleteEntry removes the entry named name. Deleting an absent entry is a
// NotFoundError and leaves the file untouched.
func (s *Store) DeleteEntry(ctx context.Context, name string) error {
	return s.mutate(ctx, "delete entry "+name, func(doc *document) error {
		if !doc.deleteEntry(name) {
			return api.NewServerNotFoundError(name)
		}
		return nil
	})
}

// WriteGlobalShortcut sets the host's global shortcut.
func (s *Store) WriteGlobalShortcut(ctx context.Context, value string) error {
	return s.mutate(ctx, "write globalShortcut", func(doc *document) error {
		return doc.setGlobalShortcut(value)
	})
}

// RestoreBackup replaces the configuration with the last backup.
func (s *Store) RestoreBackup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(s.BackupPath()); err != nil {
		return &api.ConfigIOError{Op: "restore", Path: s.BackupPath(), Err: err}
	}
	if err := copyFile(s.BackupPath(), s.path); err != nil {
		return &api.ConfigIOError{Op: "restore", Path: s.path, Err: err}
	}
	logging.Info("HostConfig", "Restored %s from backup", s.path)
	return nil
}

func (s *Store) mutate(ctx context.Context, op string, fn func(*document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	data, err := doc.encode()
	if err != nil {
		return &api.ConfigIOError{Op: "encode", Path: s.path, Err: err}
	}

	hadFile := s.Exists()
	if hadFile {
		if err := copyFile(s.path, s.BackupPath()); err != nil {
			return &api.ConfigIOError{Op: "backup", Path: s.BackupPath(), Err: err}
		}
	}

	if err := s.writeAtomic(data); err != nil {
		if hadFile {
			if rerr := copyFile(s.BackupPath(), s.path); rerr != nil {
				logging.Error("HostConfig", rerr, "Failed to restore %s from backup", s.path)
			}
		}
		return &api.ConfigIOError{Op: "write", Path: s.path, Err: err}
	}

	logging.Debug("HostConfig", "Applied %s to %s", op, s.path)
	return nil
}

func (s *Store) readDocument() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, &api.ConfigIOError{Op: "read", Path: s.path, Err: err}
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &api.ConfigIOError{Op: "read", Path: s.path, Err: err}
	}
	return doc, nil
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := s.rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, &api.ConfigIOError{Op: "lock", Path: s.path, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	fl := flock.New(s.path + lockSuffix)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			err = ErrLockTimeout
		}
		return nil, &api.ConfigIOError{Op: "lock", Path: s.path, Err: err}
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logging.Warn("HostConfig", "Failed to release lock on %s: %v", s.path, err)
		}
	}, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(dst, data, mode)
}
