package session

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AhmetY21/TextWorld/pkg/game"
	"github.com/AhmetY21/TextWorld/pkg/output"
)

// End-of-game banners printed by the interpreter. They are the fallback
// win/lose signal when quest tracking is off.
const (
	wonBanner  = "*** The End ***"
	lostBanner = "*** You lost! ***"
)

// cell is an unresolved-or-resolved holder for a lazily derived field.
// Resolution runs at most once so repeated reads stay consistent; errors are
// not cached because they are deterministic given the snapshot's inputs.
type cell[T any] struct {
	resolved bool
	value    T
}

func (c *cell[T]) resolve(compute func() (T, error)) (T, error) {
	if c.resolved {
		return c.value, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.resolved = true
	return v, nil
}

// GameState is an immutable snapshot of one turn: the command issued, the
// clean feedback, the side-channel facts observed so far, and everything
// derived from the progression tracker. Derived fields are computed on first
// access and cached. A snapshot references its predecessor only for
// reward-delta computation; the chain may be truncated without invalidating
// the current snapshot.
type GameState struct {
	game    *game.Game
	grammar *game.Grammar
	prog    *game.Progression
	norm    *output.Normalizer

	prev       *GameState
	command    string
	feedback   string
	infos      map[string]string
	nbMoves    int
	hasTimeout bool

	stateTracking  bool
	rewardTracking bool

	score       cell[int]
	won         cell[bool]
	lost        cell[bool]
	admissible  cell[[]string]
	policy      cell[[]string]
	cmdFeedback cell[string]
}

// newInitialState builds the snapshot for a session's boot output. The
// introductory narrative becomes the feedback and there is no command.
func newInitialState(bootText string, g *game.Game, norm *output.Normalizer, stateTracking, rewardTracking bool) (*GameState, error) {
	clean, infos, _, err := norm.Normalize(bootText)
	if err != nil {
		return nil, err
	}

	return &GameState{
		game:           g,
		grammar:        game.NewGrammar(g),
		prog:           game.NewProgression(g),
		norm:           norm,
		feedback:       clean,
		infos:          infos,
		stateTracking:  stateTracking,
		rewardTracking: rewardTracking && len(g.Quests) > 0,
	}, nil
}

// update derives the next snapshot from the command issued and the raw
// interpreter output. Side-channel facts carry forward: a fact not re-emitted
// this turn keeps its last known value. Events advance the shared progression
// tracker only when state tracking is on.
func (s *GameState) update(command, rawOutput string) (*GameState, error) {
	clean, infos, events, err := s.norm.Normalize(rawOutput)
	if err != nil {
		return nil, err
	}

	// Seal this snapshot's tracker-backed fields before the successor
	// mutates the shared progression, so reward deltas compare the state
	// before and after this turn.
	s.seal()

	merged := make(map[string]string, len(s.infos)+len(infos))
	for k, v := range s.infos {
		merged[k] = v
	}
	for k, v := range infos {
		merged[k] = v
	}

	next := &GameState{
		game:           s.game,
		grammar:        s.grammar,
		prog:           s.prog,
		norm:           s.norm,
		prev:           s,
		command:        command,
		feedback:       clean,
		infos:          merged,
		nbMoves:        s.nbMoves + 1,
		stateTracking:  s.stateTracking,
		rewardTracking: s.rewardTracking,
	}

	if s.stateTracking {
		for _, event := range events {
			action := s.grammar.DetectAction(event, s.prog.ValidActions())
			if action == nil {
				continue // flavor event, not a tracked action
			}
			if err := s.prog.Update(action); err != nil {
				return nil, err
			}
		}
	}
	return next, nil
}

// seal resolves every tracker-backed derived field so later mutations of the
// shared progression cannot change this snapshot's view.
func (s *GameState) seal() {
	_, _ = s.won.resolve(s.computeWon)
	_, _ = s.lost.resolve(s.computeLost)
	if s.stateTracking {
		_, _ = s.score.resolve(s.computeScore)
		_, _ = s.admissible.resolve(s.computeAdmissible)
	}
	if s.rewardTracking {
		_, _ = s.policy.resolve(s.computePolicy)
	}
}

// Command is the command that produced this snapshot; empty on the initial
// snapshot.
func (s *GameState) Command() string { return s.command }

// Feedback is the clean narrative text for this turn, with all markup
// removed.
func (s *GameState) Feedback() string { return s.feedback }

// Moves is the number of commands issued so far.
func (s *GameState) Moves() int { return s.nbMoves }

// Previous is the prior turn's snapshot, nil on the initial snapshot.
func (s *GameState) Previous() *GameState { return s.prev }

// Objective is the game's stated goal.
func (s *GameState) Objective() string { return s.game.Objective }

// MaxScore is fixed for the lifetime of the loaded game.
func (s *GameState) MaxScore() int { return s.game.MaxScore() }

// HasTimeout reports that the interpreter exited without a win or lose
// banner.
func (s *GameState) HasTimeout() bool { return s.hasTimeout }

// Description is the current room description side-channel fact.
func (s *GameState) Description() (string, error) {
	return s.info("description")
}

// Inventory is the current inventory side-channel fact.
func (s *GameState) Inventory() (string, error) {
	return s.info("inventory")
}

// Info returns any side-channel fact by name.
func (s *GameState) Info(name string) (string, error) {
	return s.info(name)
}

func (s *GameState) info(name string) (string, error) {
	v, ok := s.infos[name]
	if !ok {
		return "", &MissingInfoError{Info: name}
	}
	return v, nil
}

// Score is the current score: tracker-backed when state tracking is on,
// otherwise parsed from the "score" side-channel fact.
func (s *GameState) Score() (int, error) {
	return s.score.resolve(s.computeScore)
}

func (s *GameState) computeScore() (int, error) {
	if s.stateTracking {
		return s.prog.Score(), nil
	}
	raw, err := s.info("score")
	if err != nil {
		return 0, err
	}
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("session: malformed score %q: %w", raw, err)
	}
	return score, nil
}

// HasWon reports victory: tracker-backed when reward computation is on,
// otherwise detected from the end-of-game banner. When both sources are
// available the tracker wins.
func (s *GameState) HasWon() bool {
	won, _ := s.won.resolve(s.computeWon)
	return won
}

func (s *GameState) computeWon() (bool, error) {
	if s.rewardTracking {
		return s.prog.Completed(), nil
	}
	return strings.Contains(s.feedback, wonBanner), nil
}

// HasLost reports defeat, sourced like HasWon.
func (s *GameState) HasLost() bool {
	lost, _ := s.lost.resolve(s.computeLost)
	return lost
}

func (s *GameState) computeLost() (bool, error) {
	if s.rewardTracking {
		return s.prog.Failed(), nil
	}
	return strings.Contains(s.feedback, lostBanner), nil
}

// Done reports whether the session can progress any further.
func (s *GameState) Done() bool {
	return s.HasWon() || s.HasLost() || s.hasTimeout
}

// AdmissibleCommands renders every currently valid action into a
// natural-language command, deduplicated and in sorted order so results are
// reproducible across runs. Requires state tracking.
func (s *GameState) AdmissibleCommands() ([]string, error) {
	return s.admissible.resolve(s.computeAdmissible)
}

func (s *GameState) computeAdmissible() ([]string, error) {
	if !s.stateTracking {
		return nil, &StateTrackingRequiredError{Field: "admissible_commands"}
	}
	cmds := s.grammar.Commands(s.prog.ValidActions())
	seen := make(map[string]bool, len(cmds))
	unique := cmds[:0]
	for _, cmd := range cmds {
		if !seen[cmd] {
			seen[cmd] = true
			unique = append(unique, cmd)
		}
	}
	sort.Strings(unique)
	return unique, nil
}

// PolicyCommands is the shortest remaining winning action sequence rendered
// as commands, empty once the game has ended. Requires intermediate reward.
func (s *GameState) PolicyCommands() ([]string, error) {
	return s.policy.resolve(s.computePolicy)
}

func (s *GameState) computePolicy() ([]string, error) {
	if !s.rewardTracking {
		return nil, &RewardTrackingRequiredError{Field: "policy_commands"}
	}
	policy := s.prog.WinningPolicy()
	if policy == nil {
		return []string{}, nil
	}
	return s.grammar.Commands(policy), nil
}

// IntermediateReward is a dense, bounded shaping signal for the last command:
// +1 on winning, -1 on losing, otherwise the sign of the change in remaining
// winning-policy length. Always one of {-1, 0, 1}. Requires intermediate
// reward.
func (s *GameState) IntermediateReward() (int, error) {
	if !s.rewardTracking {
		return 0, &RewardTrackingRequiredError{Field: "intermediate_reward"}
	}

	if s.HasWon() {
		return 1, nil
	}
	if s.HasLost() {
		return -1, nil
	}
	if s.prev == nil {
		return 0, nil
	}

	prevPolicy, err := s.prev.PolicyCommands()
	if err != nil {
		return 0, err
	}
	policy, err := s.PolicyCommands()
	if err != nil {
		return 0, err
	}
	return sign(len(prevPolicy) - len(policy)), nil
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

// CommandFeedback is the feedback with the room description, inventory text
// and objective stripped out. On the initial snapshot it is empty by
// convention; the opening banner is not command feedback.
func (s *GameState) CommandFeedback() (string, error) {
	return s.cmdFeedback.resolve(s.computeCommandFeedback)
}

func (s *GameState) computeCommandFeedback() (string, error) {
	if s.nbMoves == 0 {
		return "", nil
	}

	description, err := s.Description()
	if err != nil {
		return "", err
	}
	inventory, err := s.Inventory()
	if err != nil {
		return "", err
	}

	feedback := s.feedback
	for _, block := range []string{description, inventory, s.game.Objective} {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		re := regexp.MustCompile(`\s*` + regexp.QuoteMeta(block) + `\s*`)
		feedback = re.ReplaceAllString(feedback, "")
	}
	return strings.TrimSpace(feedback), nil
}
