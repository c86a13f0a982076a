package session

import (
	"errors"
	"fmt"
)

// ErrNotRunning is returned when a command is issued while the interpreter
// process is not alive, or when it closes mid-command.
var ErrNotRunning = errors.New("session: game is not running")

// ErrAlreadyStarted is returned by configuration calls made after Reset.
// Tracking modes and extra infos are part of the interpreter handshake and
// cannot change once a session is live.
var ErrAlreadyStarted = errors.New("session: configuration must happen before Reset")

// GameStartError reports a game that failed to produce usable output on
// startup.
type GameStartError struct {
	GameFile string
	Err      error
}

func (e *GameStartError) Error() string {
	return fmt.Sprintf("session: game %q failed to start properly: %v", e.GameFile, e.Err)
}

func (e *GameStartError) Unwrap() error { return e.Err }

// MissingInfoError reports access to a side-channel fact that was never
// enabled or observed. Enable it with EnableExtraInfo before Reset.
type MissingInfoError struct {
	Info string
}

func (e *MissingInfoError) Error() string {
	return fmt.Sprintf("session: extra info %q is not available; call EnableExtraInfo(%q) before Reset", e.Info, e.Info)
}

// StateTrackingRequiredError reports access to a field that needs state
// tracking. Call ActivateStateTracking before Reset.
type StateTrackingRequiredError struct {
	Field string
}

func (e *StateTrackingRequiredError) Error() string {
	return fmt.Sprintf("session: %q requires state tracking; call ActivateStateTracking before Reset", e.Field)
}

// RewardTrackingRequiredError reports access to a field that needs
// intermediate-reward computation. Call ComputeIntermediateReward before
// Reset.
type RewardTrackingRequiredError struct {
	Field string
}

func (e *RewardTrackingRequiredError) Error() string {
	return fmt.Sprintf("session: %q requires intermediate reward; call ComputeIntermediateReward before Reset", e.Field)
}
