package domain

import "strings"

// Condition branch handles. Authors may use either the short or the long form.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Edge is a directed dependency from Source to Target.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`

	// SourceHandle disambiguates multiple outputs of one node.
	// Condition nodes emit "true" and "false" ("true-branch"/"false-branch" are accepted).
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
}

// Branch returns the condition branch this edge belongs to ("true", "false"),
// or "" when the handle does not name a branch.
func (e Edge) Branch() string {
	h := strings.ToLower(strings.TrimSpace(e.SourceHandle))
	h = strings.TrimSuffix(h, "-branch")
	switch h {
	case HandleTrue, HandleFalse:
		return h
	}
	return ""
}
