package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mcpdeck/pkg/logging"

	"github.com/chzyer/readline"
)

const defaultMaxAttempts = 3

// lineReader is the part of *readline.Instance the prompts use.
type lineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Close() error
}

// Prompt asks the user for input on the terminal.
type Prompt struct {
	// Out receives hints and validation messages.
	Out io.Writer
	// MaxAttempts bounds how often an invalid directory is re-asked.
	MaxAttempts int

	newReader func(prompt string, completer readline.AutoCompleter) (lineReader, error)
}

// New returns a Prompt reading from the process terminal.
func New() *Prompt {
	return &Prompt{
		Out:         os.Stderr,
		MaxAttempts: defaultMaxAttempts,
		newReader: func(prompt string, completer readline.AutoCompleter) (lineReader, error) {
			return readline.NewEx(&readline.Config{
				Prompt:          prompt,
				AutoComplete:    completer,
				InterruptPrompt: "^C",
				EOFPrompt:       "",
				Stdout:          os.Stderr,
			})
		},
	}
}

// PickDirectory asks for an existing directory. Ctrl-C, Ctrl-D, an empty
// answer or a cancelled ctx all mean the user gave up, reported as ok=false.
func (p *Prompt) PickDirectory(ctx context.Context) (string, bool, error) {
	rl, err := p.newReader("directory> ", DirCompleter{})
	if err != nil {
		return "", false, fmt.Errorf("failed to create readline instance: %w", err)
	}
	stop := closeOnDone(ctx, rl)
	defer stop()

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	fmt.Fprintln(p.Out, "Enter a directory (TAB completes, empty line cancels):")

	for i := 0; i < attempts; i++ {
		line, err := rl.Readline()
		if cancelled(ctx, err) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			return "", false, nil
		}

		dir, err := checkDirectory(input)
		if err != nil {
			fmt.Fprintf(p.Out, "  %v\n", err)
			continue
		}
		logging.Debug("Picker", "Selected directory %s", dir)
		return dir, true, nil
	}
	fmt.Fprintln(p.Out, "Too many invalid answers, giving up.")
	return "", false, nil
}

// PromptEnv asks for a value for each key. Values of keys that look like
// secrets are read without echo. An empty answer keeps current[key]. ok is
// false when the user cancelled.
func (p *Prompt) PromptEnv(ctx context.Context, keys []string, current map[string]string) (map[string]string, bool, error) {
	rl, err := p.newReader("", nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create readline instance: %w", err)
	}
	stop := closeOnDone(ctx, rl)
	defer stop()

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		label := key
		if cur := current[key]; cur != "" {
			label = fmt.Sprintf("%s [%s]", key, displayValue(key, cur))
		}
		prompt := label + ": "

		var (
			line string
			err  error
		)
		if IsSecretKey(key) {
			var b []byte
			b, err = rl.ReadPassword(prompt)
			line = string(b)
		} else {
			rl.SetPrompt(prompt)
			line, err = rl.Readline()
		}
		if cancelled(ctx, err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("readline error: %w", err)
		}

		if v := strings.TrimSpace(line); v != "" {
			values[key] = v
		} else if cur, ok := current[key]; ok {
			values[key] = cur
		}
	}
	return values, true, nil
}

// IsSecretKey reports whether an environment key likely holds a credential.
func IsSecretKey(key string) bool {
	k := strings.ToUpper(key)
	for _, marker := range []string{"KEY", "TOKEN", "SECRET", "PASSWORD"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

func displayValue(key, value string) string {
	if IsSecretKey(key) {
		return "****"
	}
	return value
}

func cancelled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF)
}

// closeOnDone closes rl when ctx ends, unblocking a pending read.
func closeOnDone(ctx context.Context, rl lineReader) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		rl.Close()
	}()
	return func() { close(done) }
}

// checkDirectory expands ~ and returns the absolute path of an existing
// directory.
func checkDirectory(input string) (string, error) {
	path, err := expandHome(input)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s does not exist", abs)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
