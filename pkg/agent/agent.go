// Package agent provides automated players for a game session. Each agent
// maps the current snapshot to the next command; the session driver does the
// rest.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/AhmetY21/TextWorld/pkg/game"
	"github.com/AhmetY21/TextWorld/pkg/session"
)

// ErrNoCommand is returned when an agent has nothing left to play, e.g. a
// walkthrough agent whose policy is exhausted.
var ErrNoCommand = errors.New("agent: no command to play")

// Agent chooses the next command from the current snapshot.
type Agent interface {
	Act(st *session.GameState) (string, error)
}

// Random types naive verb-entity commands drawn from the game's lexicon. It
// needs no tracking modes and mostly produces nonsense, which makes it a
// useful baseline.
type Random struct {
	game *game.Game
	rng  *rand.Rand
}

var _ Agent = (*Random)(nil)

// NewRandom returns a Random agent with a deterministic seed.
func NewRandom(g *game.Game, seed int64) *Random {
	return &Random{game: g, rng: rand.New(rand.NewSource(seed))}
}

func (a *Random) Act(st *session.GameState) (string, error) {
	if len(a.game.Verbs) == 0 {
		return "", fmt.Errorf("agent: game defines no verbs")
	}
	verb := a.game.Verbs[a.rng.Intn(len(a.game.Verbs))]
	if len(a.game.EntityNames) == 0 {
		return verb, nil
	}
	entity := a.game.EntityNames[a.rng.Intn(len(a.game.EntityNames))]
	return verb + " " + entity, nil
}

// RandomCommand picks uniformly among the snapshot's admissible commands.
// Requires state tracking.
type RandomCommand struct {
	rng *rand.Rand
}

var _ Agent = (*RandomCommand)(nil)

// NewRandomCommand returns a RandomCommand agent with a deterministic seed.
func NewRandomCommand(seed int64) *RandomCommand {
	return &RandomCommand{rng: rand.New(rand.NewSource(seed))}
}

func (a *RandomCommand) Act(st *session.GameState) (string, error) {
	commands, err := st.AdmissibleCommands()
	if err != nil {
		return "", err
	}
	if len(commands) == 0 {
		return "", ErrNoCommand
	}
	return commands[a.rng.Intn(len(commands))], nil
}

// Walkthrough follows the winning policy one command at a time. Requires
// intermediate reward.
type Walkthrough struct{}

var _ Agent = (*Walkthrough)(nil)

// NewWalkthrough returns a Walkthrough agent.
func NewWalkthrough() *Walkthrough {
	return &Walkthrough{}
}

func (a *Walkthrough) Act(st *session.GameState) (string, error) {
	policy, err := st.PolicyCommands()
	if err != nil {
		return "", err
	}
	if len(policy) == 0 {
		return "", ErrNoCommand
	}
	return policy[0], nil
}
