package formatting

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PrettyJSON formats any value as indented JSON, falling back to %v when it
// cannot be marshaled.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Truncate shortens s to max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// MaskValue hides the value of credential-like keys.
func MaskValue(key, value string) string {
	if value == "" {
		return value
	}
	k := strings.ToUpper(key)
	for _, marker := range []string{"KEY", "TOKEN", "SECRET", "PASSWORD"} {
		if strings.Contains(k, marker) {
			return "****"
		}
	}
	return value
}

// FormatEnv renders env as sorted KEY=VALUE pairs with secrets masked.
func FormatEnv(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+MaskValue(k, env[k]))
	}
	return strings.Join(parts, ",")
}
