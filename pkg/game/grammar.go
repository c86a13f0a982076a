package game

import (
	"regexp"
	"strings"
)

var templateSlotRegex = regexp.MustCompile(`\{[^}]*\}`)

// Grammar maps between traced event names and the natural-language commands
// that produce them, using the game's static action grammar.
type Grammar struct {
	game *Game
}

// NewGrammar builds a Grammar over the given game definition.
func NewGrammar(g *Game) *Grammar {
	return &Grammar{game: g}
}

// DetectAction resolves a traced event name to the currently valid action it
// corresponds to. It returns nil when the event does not match any valid
// action; flavor events that do not affect quest state are expected and are
// not an error.
func (gr *Grammar) DetectAction(event string, valid []*Action) *Action {
	event = strings.TrimSpace(event)
	for _, a := range valid {
		if a.Name == event {
			return a
		}
	}
	return nil
}

// Command renders a single action into its natural-language command by
// filling the template's {slot} placeholders from the action's entities, in
// order. Slots beyond the entity list render empty.
func (gr *Grammar) Command(a *Action) string {
	i := 0
	cmd := templateSlotRegex.ReplaceAllStringFunc(a.Template, func(string) string {
		if i >= len(a.Entities) {
			return ""
		}
		entity := a.Entities[i]
		i++
		return entity
	})
	return strings.Join(strings.Fields(cmd), " ")
}

// Commands renders a sequence of actions into commands, preserving order.
func (gr *Grammar) Commands(actions []*Action) []string {
	cmds := make([]string, 0, len(actions))
	for _, a := range actions {
		cmds = append(cmds, gr.Command(a))
	}
	return cmds
}
