package middleware

import (
	"context"
	"maps"
	"regexp"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Mask replaces sensitive values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks, in recorded node results, every value whose key
// matches one of the patterns. Node ids are keys too, so a pattern can
// hide a node's whole result. Nested maps, arrays and Output values are
// walked.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	if record == nil {
		return m.next.Save(ctx, record)
	}
	// The engine's own snapshot must stay untouched.
	cloned := *record
	cloned.NodeResults = m.maskMap(record.NodeResults)
	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *piiMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) sensitive(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// maskMap returns a masked deep copy of in.
func (m *piiMiddleware) maskMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := maps.Clone(in)
	for k, v := range out {
		if m.sensitive(k) {
			out[k] = Mask
			continue
		}
		out[k] = m.maskValue(v)
	}
	return out
}

func (m *piiMiddleware) maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return m.maskMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = m.maskValue(e)
		}
		return out
	case domain.OutputValue:
		t.Value = m.maskValue(t.Value)
		return t
	default:
		return v
	}
}
