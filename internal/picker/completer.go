package picker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirCompleter completes directory names for readline.
type DirCompleter struct{}

// Do implements readline.AutoCompleter. It returns the suffixes that extend
// the last path element of line[:pos] to a directory name, and the length of
// that element.
func (DirCompleter) Do(line []rune, pos int) ([][]rune, int) {
	typed := string(line[:pos])

	dir, prefix := filepath.Split(typed)
	lookup := dir
	if lookup == "" {
		lookup = "."
	} else if expanded, err := expandHome(lookup); err == nil {
		lookup = expanded
	}

	entries, err := os.ReadDir(lookup)
	if err != nil {
		return nil, 0
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([][]rune, 0, len(names))
	for _, name := range names {
		out = append(out, []rune(name[len(prefix):]+string(filepath.Separator)))
	}
	return out, len([]rune(prefix))
}
