package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AhmetY21/TextWorld/pkg/game"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <game.json|game.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &GameValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Game definition is valid!")
}

type GameValidator struct {
	errors []string
}

func (v *GameValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("game definition must have a .json, .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidGameFilename(nameWithoutExt) {
		return fmt.Errorf("game filename '%s' must be lowercase snake_case (e.g., my_game.json, not my-game.json or MyGame.json)", baseName)
	}

	g, err := game.Load(filename)
	if err != nil {
		return fmt.Errorf("file %s failed to load: %w", filename, err)
	}

	v.errors = nil
	v.validateGame(g)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *GameValidator) validateGame(g *game.Game) {
	grammar := game.NewGrammar(g)

	for i := range g.Actions {
		v.validateAction(grammar, &g.Actions[i])
	}

	for _, q := range g.Quests {
		v.validateQuest(g, &q)
	}

	for _, verb := range g.Verbs {
		if !isLowercase(verb) {
			v.addError(fmt.Sprintf("verb '%s' should be lowercase", verb))
		}
	}
	for _, name := range g.EntityNames {
		if !isLowercase(name) {
			v.addError(fmt.Sprintf("entity name '%s' should be lowercase", name))
		}
	}
}

func (v *GameValidator) validateAction(grammar *game.Grammar, a *game.Action) {
	slots := strings.Count(a.Template, "{")
	if slots != len(a.Entities) {
		v.addError(fmt.Sprintf("action '%s' template has %d slots but %d entities", a.Name, slots, len(a.Entities)))
		return
	}

	command := grammar.Command(a)
	if strings.ContainsAny(command, "{}") {
		v.addError(fmt.Sprintf("action '%s' renders to an incomplete command '%s'", a.Name, command))
	}
	if a.Failing && a.Reward > 0 {
		v.addError(fmt.Sprintf("action '%s' is failing but carries a positive reward", a.Name))
	}
}

func (v *GameValidator) validateQuest(g *game.Game, q *game.Quest) {
	if len(q.Steps) == 0 {
		v.addError(fmt.Sprintf("quest '%s' has no steps", q.Name))
	}
	for _, step := range q.Steps {
		action := g.Action(step)
		if action == nil {
			v.addError(fmt.Sprintf("quest '%s' references unknown action '%s'", q.Name, step))
			continue
		}
		if action.Failing {
			v.addError(fmt.Sprintf("quest '%s' step '%s' is a failing action and can never be satisfied", q.Name, step))
		}
	}
}

func (v *GameValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidGameFilename(name string) bool {
	// Allow 'x.' prefix for experimental games
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}

func isLowercase(s string) bool {
	return s == strings.ToLower(s)
}
