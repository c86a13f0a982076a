package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is one entry of the static action grammar. Name is the exact event
// name the interpreter traces when the action completes. Template is the
// natural-language command rendering, with {slot} placeholders filled from
// Entities in order.
type Action struct {
	Name     string   `json:"name" yaml:"name"`
	Template string   `json:"template" yaml:"template"`
	Entities []string `json:"entities,omitempty" yaml:"entities,omitempty"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Reward   int      `json:"reward,omitempty" yaml:"reward,omitempty"`
	Failing  bool     `json:"failing,omitempty" yaml:"failing,omitempty"`
	Sticky   bool     `json:"sticky,omitempty" yaml:"sticky,omitempty"`
}

// Quest is an ordered list of required actions. Steps must be listed in
// dependency order; that order is also the policy tiebreak.
type Quest struct {
	Name  string   `json:"name" yaml:"name"`
	Steps []string `json:"steps" yaml:"steps"`
}

// Game is the read-only definition of a compiled game: its action grammar,
// quest structure and lexicon. It is loaded once before a session starts and
// never mutated.
type Game struct {
	Name             string            `json:"name" yaml:"name"`
	Objective        string            `json:"objective,omitempty" yaml:"objective,omitempty"`
	Actions          []Action          `json:"actions" yaml:"actions"`
	Quests           []Quest           `json:"quests,omitempty" yaml:"quests,omitempty"`
	CommandTemplates []string          `json:"command_templates,omitempty" yaml:"command_templates,omitempty"`
	Verbs            []string          `json:"verbs,omitempty" yaml:"verbs,omitempty"`
	EntityNames      []string          `json:"entity_names,omitempty" yaml:"entity_names,omitempty"`
	Extras           map[string]string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// MissingDefinitionError is returned when a game file has no definition
// sidecar. Only games compiled together with their definition can be driven
// with state tracking.
type MissingDefinitionError struct {
	GameFile string
}

func (e *MissingDefinitionError) Error() string {
	return fmt.Sprintf("game: no definition sidecar (.json or .yaml) found next to %s", e.GameFile)
}

// Load reads a game definition from a JSON or YAML file.
func Load(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("game: read definition: %w", err)
	}

	g := &Game{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, g); err != nil {
			return nil, fmt.Errorf("game: parse yaml definition: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, g); err != nil {
			return nil, fmt.Errorf("game: parse json definition: %w", err)
		}
	default:
		return nil, fmt.Errorf("game: unsupported definition format %q", filepath.Ext(path))
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadForGameFile resolves the definition sidecar for a compiled game file
// (same base name, .json/.yaml/.yml extension) and loads it.
func LoadForGameFile(gamefile string) (*Game, error) {
	base := strings.TrimSuffix(gamefile, filepath.Ext(gamefile))
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		sidecar := base + ext
		if _, err := os.Stat(sidecar); err == nil {
			return Load(sidecar)
		}
	}
	return nil, &MissingDefinitionError{GameFile: gamefile}
}

func (g *Game) validate() error {
	if len(g.Actions) == 0 {
		return fmt.Errorf("game: definition has no actions")
	}

	byName := make(map[string]bool, len(g.Actions))
	for _, a := range g.Actions {
		if a.Name == "" {
			return fmt.Errorf("game: action with empty name")
		}
		if byName[a.Name] {
			return fmt.Errorf("game: duplicate action %q", a.Name)
		}
		byName[a.Name] = true
	}

	for _, a := range g.Actions {
		for _, req := range a.Requires {
			if !byName[req] {
				return fmt.Errorf("game: action %q requires unknown action %q", a.Name, req)
			}
		}
	}

	for _, q := range g.Quests {
		if len(q.Steps) == 0 {
			return fmt.Errorf("game: quest %q has no steps", q.Name)
		}
		for _, step := range q.Steps {
			if !byName[step] {
				return fmt.Errorf("game: quest %q references unknown action %q", q.Name, step)
			}
		}
	}
	return nil
}

// Action returns the action with the given name, or nil.
func (g *Game) Action(name string) *Action {
	for i := range g.Actions {
		if g.Actions[i].Name == name {
			return &g.Actions[i]
		}
	}
	return nil
}

// requiredSteps returns the set of action names required by any quest.
func (g *Game) requiredSteps() map[string]bool {
	steps := make(map[string]bool)
	for _, q := range g.Quests {
		for _, step := range q.Steps {
			steps[step] = true
		}
	}
	return steps
}

// MaxScore is the total reward available from the game's quests. It is fixed
// for the lifetime of a loaded game.
func (g *Game) MaxScore() int {
	total := 0
	for name := range g.requiredSteps() {
		if a := g.Action(name); a != nil {
			total += a.Reward
		}
	}
	return total
}
