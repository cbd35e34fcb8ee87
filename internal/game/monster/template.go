// Package monster implements the room's NPC monster: template-driven stats,
// per-round aging, and the forced-target override used by controlling
// abilities.
package monster

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgingStep raises the monster's damage multiplier once its age reaches Round.
type AgingStep struct {
	Round      int     `yaml:"round"`
	Multiplier float64 `yaml:"multiplier"`
}

// Template is the static monster definition, loaded from YAML.
type Template struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	MaxHP       int         `yaml:"hp"`
	Damage      int         `yaml:"damage"`
	Aging       []AgingStep `yaml:"aging"`
}

// Validate checks the template's structural invariants.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster: id must not be empty")
	}
	if t.MaxHP <= 0 {
		return fmt.Errorf("monster %q: hp must be > 0, got %d", t.ID, t.MaxHP)
	}
	if t.Damage < 0 {
		return fmt.Errorf("monster %q: damage must be >= 0, got %d", t.ID, t.Damage)
	}
	for _, s := range t.Aging {
		if s.Multiplier <= 0 {
			return fmt.Errorf("monster %q: aging multiplier must be > 0, got %v", t.ID, s.Multiplier)
		}
	}
	return nil
}

// LoadTemplates reads every *.yaml file in dir and returns the parsed
// templates keyed by ID. Aging steps are sorted by round.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil map, or an error if any file fails to
// parse or validate.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}
	out := make(map[string]*Template)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var tmpl Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&tmpl); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		sort.Slice(tmpl.Aging, func(i, j int) bool { return tmpl.Aging[i].Round < tmpl.Aging[j].Round })
		out[tmpl.ID] = &tmpl
	}
	return out, nil
}
