package suggest

import "strings"

// MaxExternal caps how many external suggestions are considered.
const MaxExternal = 5

// Combine merges local and external suggestions, local first. Duplicates are
// detected case-insensitively and the first-seen spelling wins.
func Combine(local, external []string) []string {
	seen := make(map[string]bool, len(local)+len(external))
	out := make([]string, 0, MaxLocal+MaxExternal)
	add := func(items []string, limit int) {
		if len(items) > limit {
			items = items[:limit]
		}
		for _, item := range items {
			item = strings.TrimSpace(item)
			key := strings.ToLower(item)
			if item == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}
	add(local, MaxLocal)
	add(external, MaxExternal)
	if len(out) > MaxLocal+MaxExternal {
		out = out[:MaxLocal+MaxExternal]
	}
	return out
}
