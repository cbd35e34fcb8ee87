// Package race defines the externally supplied race content table. A race
// grants one racial ability with limited uses and its own cooldown.
package race

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/covenfall/covenfall/internal/game/ability"
)

// Race is one race content record.
type Race struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Ability is the racial ability type granted at join.
	Ability ability.Type `yaml:"ability"`
	// Uses is the number of racial ability uses per match.
	Uses int `yaml:"uses"`
	// Cooldown is the rounds between racial uses.
	Cooldown int `yaml:"cooldown"`
	// BonusArmor is added to the actor's base armor at join.
	BonusArmor int `yaml:"bonus_armor"`
}

// Validate checks the record's structural invariants.
func (r *Race) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("race: id must not be empty")
	}
	if r.Uses < 0 {
		return fmt.Errorf("race %q: uses must be >= 0, got %d", r.ID, r.Uses)
	}
	if r.Cooldown < 0 {
		return fmt.Errorf("race %q: cooldown must be >= 0, got %d", r.ID, r.Cooldown)
	}
	return nil
}

// LoadRaces reads every *.yaml file in dir and returns the parsed races
// keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil map, or an error if any file fails to
// parse or validate.
func LoadRaces(dir string) (map[string]*Race, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading race dir %q: %w", dir, err)
	}
	out := make(map[string]*Race)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var r Race
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		out[r.ID] = &r
	}
	return out, nil
}
