package domain

import "strings"

// SystemActor is recorded when no caller identity is available.
const SystemActor = "system"

// ResolveActor picks the first non-blank identity in preference order.
func ResolveActor(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return SystemActor
}
