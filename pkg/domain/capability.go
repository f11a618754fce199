package domain

import "strings"

// CapabilityKind names the three kinds of external capability a
// Capability node can invoke.
type CapabilityKind string

const (
	CapabilityTool     CapabilityKind = "tool"
	CapabilityResource CapabilityKind = "resource"
	CapabilityPrompt   CapabilityKind = "prompt"
)

// ParseCapabilityKind normalizes a kind name. ok is false for unknown kinds.
func ParseCapabilityKind(s string) (CapabilityKind, bool) {
	switch k := CapabilityKind(strings.ToLower(strings.TrimSpace(s))); k {
	case CapabilityTool, CapabilityResource, CapabilityPrompt:
		return k, true
	}
	return "", false
}
