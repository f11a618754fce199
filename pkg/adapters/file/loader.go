// Package file loads graph definitions from YAML or JSON files.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/lattice/pkg/domain"
)

// Extensions recognised as graph files, in lookup order.
var Extensions = []string{".yaml", ".yml", ".json"}

// Loader implements ports.GraphLoader over a directory. A graph's id is its
// file name without extension unless the file sets one.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) (*Loader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("graph directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("graph directory: %s is not a directory", dir)
	}
	return &Loader{dir: dir}, nil
}

// Load reads the graph stored as <dir>/<id>.{yaml,yml,json}.
func (l *Loader) Load(_ context.Context, id string) (*domain.Graph, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%q: %w", id, domain.ErrGraphNotFound)
	}
	for _, ext := range Extensions {
		path := filepath.Join(l.dir, id+ext)
		g, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return g, err
	}
	return nil, fmt.Errorf("%s: %w", id, domain.ErrGraphNotFound)
}

// List returns the ids of every graph file in the directory, sorted.
func (l *Loader) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !isGraphFile(e.Name()) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadFile reads and parses a single graph file.
func LoadFile(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.ID == "" {
		base := filepath.Base(path)
		g.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return g, nil
}

// Parse decodes a graph document. ext selects the format (".json" or YAML
// for anything else). Unknown YAML fields are rejected.
func Parse(data []byte, ext string) (*domain.Graph, error) {
	var g domain.Graph
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parse json graph: %w", err)
		}
		return &g, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("parse yaml graph: %w", err)
	}
	return &g, nil
}

func isGraphFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
