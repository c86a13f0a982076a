package game

import "fmt"

// IllegalActionError reports an attempt to apply an action that is not
// currently valid. It signals a mismatch between the interpreter's narrative
// and the tracked quest graph; the tracker never silently accepts an
// impossible transition.
type IllegalActionError struct {
	Action string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("game: action %q is not valid in the current state", e.Action)
}

// Progression tracks what has been accomplished against a static game
// definition: which quest steps are satisfied, whether the game has been won
// or lost, and the shortest remaining winning action sequence. It is mutated
// only through Update, never by raw text.
type Progression struct {
	game      *Game
	required  map[string]bool
	satisfied map[string]bool
	failed    bool
}

// NewProgression returns a fresh tracker over the given game definition.
func NewProgression(g *Game) *Progression {
	return &Progression{
		game:      g,
		required:  g.requiredSteps(),
		satisfied: make(map[string]bool),
	}
}

// ValidActions returns the actions that may complete in the current state, in
// static grammar order. Sticky actions stay valid until the game ends; other
// actions are valid while unsatisfied and with all requirements met. Once the
// game is won or lost, nothing is valid.
func (p *Progression) ValidActions() []*Action {
	if p.Completed() || p.failed {
		return nil
	}

	var valid []*Action
	for i := range p.game.Actions {
		a := &p.game.Actions[i]
		if a.Sticky {
			valid = append(valid, a)
			continue
		}
		if p.satisfied[a.Name] {
			continue
		}
		if p.requirementsMet(a) {
			valid = append(valid, a)
		}
	}
	return valid
}

func (p *Progression) requirementsMet(a *Action) bool {
	for _, req := range a.Requires {
		if !p.satisfied[req] {
			return false
		}
	}
	return true
}

// Update advances quest state with a concrete action. Calls after the game
// has ended, or with an already-satisfied action, are no-ops: the transport
// may deliver trailing events after a terminal state. An action that is not
// currently valid is an IllegalActionError.
func (p *Progression) Update(a *Action) error {
	if p.Completed() || p.failed {
		return nil
	}
	if p.satisfied[a.Name] {
		return nil
	}
	if !p.requirementsMet(a) {
		return &IllegalActionError{Action: a.Name}
	}

	if a.Failing {
		p.failed = true
		return nil
	}
	if !a.Sticky {
		p.satisfied[a.Name] = true
	}
	return nil
}

// Completed reports whether every quest step is satisfied.
func (p *Progression) Completed() bool {
	if len(p.required) == 0 {
		return false
	}
	for step := range p.required {
		if !p.satisfied[step] {
			return false
		}
	}
	return true
}

// Failed reports whether a failure-inducing action has occurred.
func (p *Progression) Failed() bool {
	return p.failed
}

// Score is the total reward of the satisfied quest steps.
func (p *Progression) Score() int {
	score := 0
	for name := range p.satisfied {
		if p.required[name] {
			if a := p.game.Action(name); a != nil {
				score += a.Reward
			}
		}
	}
	return score
}

// MaxScore is the total reward available from the game.
func (p *Progression) MaxScore() int {
	return p.game.MaxScore()
}

// WinningPolicy returns the shortest remaining action sequence that completes
// every quest, in static grammar order so results are reproducible across
// runs. It is nil once the game has been won or lost.
func (p *Progression) WinningPolicy() []*Action {
	if p.Completed() || p.failed {
		return nil
	}

	var policy []*Action
	for i := range p.game.Actions {
		a := &p.game.Actions[i]
		if p.required[a.Name] && !p.satisfied[a.Name] {
			policy = append(policy, a)
		}
	}
	return policy
}
