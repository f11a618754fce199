package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/lattice/pkg/executor"
)

// ParseVars merges a JSON object and "key=value" pairs into initial
// variables. Pair values that are valid JSON keep their type ("n=3" is a
// number, "tags=[\"a\"]" an array); anything else is a string.
func ParseVars(jsonObject string, pairs []string) (map[string]any, error) {
	vars := make(map[string]any)
	if strings.TrimSpace(jsonObject) != "" {
		v, err := executor.ParseLiteral(jsonObject)
		if err != nil {
			return nil, fmt.Errorf("error parsing --vars JSON: %w", err)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("--vars must be a JSON object, got %T", v)
		}
		for k, val := range obj {
			vars[k] = val
		}
	}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", pair)
		}
		vars[key] = literalOrString(raw)
	}
	return vars, nil
}

func literalOrString(raw string) any {
	if !json.Valid([]byte(raw)) {
		return raw
	}
	v, err := executor.ParseLiteral(raw)
	if err != nil {
		return raw
	}
	return v
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
