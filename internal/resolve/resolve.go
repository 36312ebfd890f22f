// Package resolve merges user directory selections and environment drafts
// into catalog templates and stored entries. Every function is pure.
package resolve

import (
	"sort"
	"strings"

	"mcpdeck/internal/api"
)

// ResolveArgs returns the invocation args for tpl. When the template requires
// a filesystem path and pendingPath is set, the last arg (the placeholder
// default) is replaced. An empty pendingPath keeps the template default.
func ResolveArgs(tpl api.ServerTemplate, pendingPath string) []string {
	args := append([]string(nil), tpl.Args...)
	if !tpl.RequiresFilePath || strings.TrimSpace(pendingPath) == "" {
		return args
	}
	return ReplacePath(args, pendingPath)
}

// ReplacePath returns a copy of args with the last element set to path. If
// args is empty the path becomes the only element.
func ReplacePath(args []string, path string) []string {
	out := append([]string(nil), args...)
	if len(out) == 0 {
		return []string{path}
	}
	out[len(out)-1] = path
	return out
}

// DefaultPath returns the template's placeholder path, or "" when the
// template does not take one.
func DefaultPath(tpl api.ServerTemplate) string {
	if !tpl.RequiresFilePath || len(tpl.Args) == 0 {
		return ""
	}
	return tpl.Args[len(tpl.Args)-1]
}

// ResolveEnv merges draft values over template defaults. Empty draft values
// fall back to the default. Keys with neither are returned, sorted, in
// missing. The returned map is nil when the template declares no env.
func ResolveEnv(tpl api.ServerTemplate, draft api.EnvDraft) (env map[string]string, missing []string) {
	if len(tpl.Env) == 0 {
		return nil, nil
	}

	env = make(map[string]string, len(tpl.Env))
	for key, def := range tpl.Env {
		if v := strings.TrimSpace(draft[key]); v != "" {
			env[key] = draft[key]
			continue
		}
		if strings.TrimSpace(def) != "" {
			env[key] = def
			continue
		}
		missing = append(missing, key)
	}
	sort.Strings(missing)
	return env, missing
}

// ValidateInstall checks that tpl can be installed with the given inputs.
// It returns a *api.ValidationError naming everything that is missing.
func ValidateInstall(tpl api.ServerTemplate, pendingPath string, draft api.EnvDraft) error {
	verr := &api.ValidationError{Name: tpl.Name}

	if tpl.RequiresFilePath && strings.TrimSpace(pendingPath) == "" && strings.TrimSpace(DefaultPath(tpl)) == "" {
		verr.MissingPath = true
	}
	if _, missing := ResolveEnv(tpl, draft); len(missing) > 0 {
		verr.MissingEnv = missing
	}

	if verr.MissingPath || len(verr.MissingEnv) > 0 {
		return verr
	}
	return nil
}

// BuildEntry validates and resolves tpl into the entry that install persists.
func BuildEntry(tpl api.ServerTemplate, pendingPath string, draft api.EnvDraft) (api.InstalledServerEntry, error) {
	if err := ValidateInstall(tpl, pendingPath, draft); err != nil {
		return api.InstalledServerEntry{}, err
	}
	env, _ := ResolveEnv(tpl, draft)
	return api.InstalledServerEntry{
		Command: tpl.Command,
		Args:    ResolveArgs(tpl, pendingPath),
		Env:     env,
	}, nil
}

// MergeEnv overlays non-empty draft values onto an entry's current env.
// It returns nil when both are empty.
func MergeEnv(current map[string]string, draft api.EnvDraft) map[string]string {
	if len(current) == 0 && len(draft) == 0 {
		return nil
	}
	out := make(map[string]string, len(current)+len(draft))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range draft {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
