package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/AhmetY21/TextWorld/pkg/game"
	"github.com/AhmetY21/TextWorld/pkg/output"
	"github.com/AhmetY21/TextWorld/pkg/transport"
)

// Handshake commands understood by interpreters compiled with tracing
// support.
const (
	traceActionsCommand = "tw-trace-actions"
	extraInfosCommand   = "tw-extra-infos"
)

// knownExtraInfos is the closed set of side-channel facts the interpreter can
// report.
var knownExtraInfos = map[string]bool{
	"description": true,
	"inventory":   true,
	"score":       true,
}

// Environment drives one game session: it owns the transport, the current
// snapshot and the tracking mode flags. One command is outstanding at a time;
// Step blocks until the interpreter responds or is observed closed. Not safe
// for concurrent use.
type Environment struct {
	id        uuid.UUID
	game      *game.Game
	transport transport.Transport
	logger    *slog.Logger

	stateTracking  bool
	rewardTracking bool
	extraInfos     []string

	norm    *output.Normalizer
	state   *GameState
	started bool
}

// NewEnvironment creates a session over a loaded game definition and a
// transport. Configure tracking modes and extra infos before calling Reset.
func NewEnvironment(g *game.Game, t transport.Transport, logger *slog.Logger) *Environment {
	return &Environment{
		id:        uuid.New(),
		game:      g,
		transport: t,
		logger:    logger,
	}
}

// ID identifies this session.
func (e *Environment) ID() uuid.UUID { return e.id }

// State is the current snapshot, nil before the first Reset.
func (e *Environment) State() *GameState { return e.state }

// EnableExtraInfo asks the interpreter to report a side-channel fact
// (description, inventory or score) every turn. Valid only before Reset.
func (e *Environment) EnableExtraInfo(name string) error {
	if e.started {
		return ErrAlreadyStarted
	}
	if !knownExtraInfos[name] {
		return fmt.Errorf("session: unknown extra info %q", name)
	}
	e.addExtraInfo(name)
	return nil
}

func (e *Environment) addExtraInfo(name string) {
	for _, info := range e.extraInfos {
		if info == name {
			return
		}
	}
	e.extraInfos = append(e.extraInfos, name)
}

// ActivateStateTracking turns on quest tracking: events advance the
// progression tracker, and Score and AdmissibleCommands become
// tracker-backed. Valid only before Reset.
func (e *Environment) ActivateStateTracking() error {
	if e.started {
		return ErrAlreadyStarted
	}
	e.stateTracking = true
	return nil
}

// ComputeIntermediateReward turns on winning-policy computation and the
// per-step reward signal. Valid only before Reset.
func (e *Environment) ComputeIntermediateReward() error {
	if e.started {
		return ErrAlreadyStarted
	}
	e.rewardTracking = true
	return nil
}

// Reset starts (or restarts) the interpreter, performs the tracing handshake
// and returns the initial snapshot.
func (e *Environment) Reset(ctx context.Context) (*GameState, error) {
	if e.started {
		if err := e.Close(); err != nil {
			return nil, err
		}
	}

	bootText, err := e.transport.Start(ctx)
	if err != nil {
		return nil, &GameStartError{GameFile: e.game.Name, Err: err}
	}
	if strings.TrimSpace(output.StripPrompt(bootText)) == "" {
		_ = e.Close()
		return nil, &GameStartError{GameFile: e.game.Name, Err: errors.New("no usable boot output")}
	}

	// Score must always be sourceable; without state tracking it comes from
	// the side channel.
	if !e.stateTracking {
		e.addExtraInfo("score")
	}
	e.started = true

	// Turn on action-event tracing, then each configured fact. The extra
	// output chunks join the boot text, prompts removed, so the initial
	// snapshot sees the first turn's facts.
	combined := output.StripPrompt(bootText)
	if _, err := e.send(ctx, traceActionsCommand); err != nil {
		return nil, err
	}
	for _, info := range e.extraInfos {
		out, err := e.send(ctx, extraInfosCommand+" "+info)
		if err != nil {
			return nil, err
		}
		combined += output.StripPrompt(out)
	}

	e.norm = output.NewNormalizer(e.extraInfos...)
	st, err := newInitialState(combined, e.game, e.norm, e.stateTracking, e.rewardTracking)
	if err != nil {
		return nil, err
	}
	e.state = st

	e.logger.Debug("session reset",
		"session_id", e.id,
		"game", e.game.Name,
		"state_tracking", e.stateTracking,
		"intermediate_reward", e.rewardTracking,
		"extra_infos", e.extraInfos)
	return st, nil
}

// Step issues one command and returns the new snapshot, the score and whether
// the session is done. Empty commands are normalized to a single space: the
// interpreter requires non-empty input.
func (e *Environment) Step(ctx context.Context, command string) (*GameState, int, bool, error) {
	if e.state == nil || !e.transport.Alive() {
		return nil, 0, false, ErrNotRunning
	}

	command = strings.TrimSpace(command)
	if command == "" {
		command = " "
	}

	rawOutput, err := e.send(ctx, command)
	if err != nil {
		return nil, 0, false, err
	}

	st, err := e.state.update(command, rawOutput)
	if err != nil {
		return nil, 0, false, err
	}
	st.hasTimeout = !e.transport.Alive() && !st.HasWon() && !st.HasLost()
	e.state = st

	score, err := st.Score()
	if err != nil {
		return nil, 0, false, err
	}
	return st, score, st.Done(), nil
}

// send forwards one command to the transport, translating closure into
// ErrNotRunning and releasing the process so the caller cannot leak it.
func (e *Environment) send(ctx context.Context, command string) (string, error) {
	out, err := e.transport.Send(ctx, command)
	if errors.Is(err, transport.ErrClosed) {
		_ = e.Close()
		return "", ErrNotRunning
	}
	if err != nil {
		return "", fmt.Errorf("session: send %q: %w", command, err)
	}
	return out, nil
}

// Close terminates the interpreter process. The last snapshot stays readable;
// the session can be restarted with Reset.
func (e *Environment) Close() error {
	e.started = false
	if err := e.transport.Terminate(); err != nil {
		return fmt.Errorf("session: close transport: %w", err)
	}
	return nil
}
