package session

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmetY21/TextWorld/pkg/game"
	"github.com/AhmetY21/TextWorld/pkg/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testGame() *game.Game {
	return &game.Game{
		Name:      "cellar",
		Objective: "Open the chest in the cellar.",
		Actions: []game.Action{
			{Name: "looking", Template: "look", Sticky: true},
			{Name: "opening door", Template: "open {door}", Entities: []string{"door"}, Reward: 1},
			{Name: "going down", Template: "go {dir}", Entities: []string{"down"}, Requires: []string{"opening door"}, Reward: 1},
			{Name: "opening chest", Template: "open {chest}", Entities: []string{"chest"}, Requires: []string{"going down"}, Reward: 3},
			{Name: "eating mushroom", Template: "eat {mushroom}", Entities: []string{"mushroom"}, Failing: true, Sticky: true},
		},
		Quests: []game.Quest{
			{Name: "chest", Steps: []string{"opening door", "going down", "opening chest"}},
		},
	}
}

const bootText = "Welcome to the Cellar.\n\nAn old house, silent and dark.\n>"

func trackedEnv(t *testing.T) (*Environment, *transport.Mock) {
	t.Helper()
	m := transport.NewMock(bootText)
	m.Script = map[string]string{
		"open door":  "[opening door]\nYou open the door.\n[opening door - succeeded]\n>",
		"go down":    "[going down]\nYou descend into the cellar.\n[going down - succeeded]\n>",
		"open chest": "[opening chest]\nThe chest creaks open. Gold!\n[opening chest - succeeded]\n>",
		"eat mushroom": "[eating mushroom]\nThat was a terrible idea.\n" +
			"[eating mushroom - succeeded]\n>",
	}

	env := NewEnvironment(testGame(), m, testLogger())
	require.NoError(t, env.ActivateStateTracking())
	require.NoError(t, env.ComputeIntermediateReward())
	return env, m
}

func TestEnvironment_ResetHandshake(t *testing.T) {
	m := transport.NewMock(bootText)
	m.Script = map[string]string{
		"tw-extra-infos score":     "<score>\n0\n</score>\n>",
		"tw-extra-infos inventory": "<inventory>\nYou carry nothing.\n</inventory>\n>",
	}

	env := NewEnvironment(testGame(), m, testLogger())
	require.NoError(t, env.EnableExtraInfo("inventory"))

	st, err := env.Reset(context.Background())
	require.NoError(t, err)

	// Tracing first, then each configured fact; score is auto-enabled when
	// state tracking is off.
	assert.Equal(t,
		[]string{"tw-trace-actions", "tw-extra-infos inventory", "tw-extra-infos score"},
		m.Commands)

	assert.Equal(t, 0, st.Moves())
	assert.Equal(t, "", st.Command())
	assert.Contains(t, st.Feedback(), "Welcome to the Cellar.")
	assert.Nil(t, st.Previous())

	inventory, err := st.Inventory()
	require.NoError(t, err)
	assert.Equal(t, "You carry nothing.\n", inventory)

	score, err := st.Score()
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestEnvironment_ResetFailsWithoutOutput(t *testing.T) {
	env := NewEnvironment(testGame(), transport.NewMock("\n>"), testLogger())
	_, err := env.Reset(context.Background())

	var startErr *GameStartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, "cellar", startErr.GameFile)
}

func TestEnvironment_ConfigAfterResetFails(t *testing.T) {
	env, _ := trackedEnv(t)
	_, err := env.Reset(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, env.EnableExtraInfo("description"), ErrAlreadyStarted)
	assert.ErrorIs(t, env.ActivateStateTracking(), ErrAlreadyStarted)
	assert.ErrorIs(t, env.ComputeIntermediateReward(), ErrAlreadyStarted)
}

func TestEnvironment_UnknownExtraInfo(t *testing.T) {
	env := NewEnvironment(testGame(), transport.NewMock(bootText), testLogger())
	err := env.EnableExtraInfo("moves")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extra info")
}

func TestEnvironment_StepTracksQuest(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	st, score, done, err := env.Step(ctx, "open door")
	require.NoError(t, err)
	assert.Equal(t, "You open the door.\n", st.Feedback())
	assert.Equal(t, 1, score)
	assert.False(t, done)
	assert.Equal(t, 1, st.Moves())

	reward, err := st.IntermediateReward()
	require.NoError(t, err)
	assert.Equal(t, 1, reward)

	policy, err := st.PolicyCommands()
	require.NoError(t, err)
	assert.Equal(t, []string{"go down", "open chest"}, policy)
}

func TestEnvironment_WinningRun(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	var st *GameState
	var score int
	var done bool
	for _, cmd := range []string{"open door", "go down", "open chest"} {
		st, score, done, err = env.Step(ctx, cmd)
		require.NoError(t, err)
	}

	assert.True(t, done)
	assert.True(t, st.HasWon())
	assert.False(t, st.HasLost())
	assert.Equal(t, 5, score)
	assert.Equal(t, 5, st.MaxScore())
	assert.Equal(t, 3, st.Moves())

	reward, err := st.IntermediateReward()
	require.NoError(t, err)
	assert.Equal(t, 1, reward)

	policy, err := st.PolicyCommands()
	require.NoError(t, err)
	assert.Empty(t, policy)
}

func TestEnvironment_LosingRun(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	st, _, done, err := env.Step(ctx, "eat mushroom")
	require.NoError(t, err)

	assert.True(t, done)
	assert.True(t, st.HasLost())
	assert.False(t, st.HasWon())

	reward, err := st.IntermediateReward()
	require.NoError(t, err)
	assert.Equal(t, -1, reward)
}

func TestEnvironment_RewardIsBounded(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	// A mix of progress, no-ops and the terminal step.
	for _, cmd := range []string{"open door", "look", "go down", "dance", "open chest"} {
		st, _, _, err := env.Step(ctx, cmd)
		require.NoError(t, err)

		reward, err := st.IntermediateReward()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, reward, -1)
		assert.LessOrEqual(t, reward, 1)
	}
}

func TestEnvironment_MoveCountIsMonotonic(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	st, err := env.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, st.Moves())

	// Every successful step increments by exactly 1, whatever the command.
	for i, cmd := range []string{"look", "", "gibberish", "open door"} {
		st, _, _, err = env.Step(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, i+1, st.Moves())
	}
}

func TestEnvironment_EmptyCommandBecomesSpace(t *testing.T) {
	env, m := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	_, _, _, err = env.Step(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, " ", m.Commands[len(m.Commands)-1])
}

func TestEnvironment_AdmissibleCommandsAreDeterministic(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	st, err := env.Reset(ctx)
	require.NoError(t, err)

	first, err := st.AdmissibleCommands()
	require.NoError(t, err)
	second, err := st.AdmissibleCommands()
	require.NoError(t, err)

	assert.Equal(t, []string{"eat mushroom", "look", "open door"}, first)
	assert.Equal(t, first, second)
	assert.True(t, strings.Join(first, "|") == strings.Join(second, "|"))
}

func TestEnvironment_StepAfterExit(t *testing.T) {
	env, m := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	m.Kill()

	_, _, _, err = env.Step(ctx, "look")
	assert.ErrorIs(t, err, ErrNotRunning)

	// A second call keeps failing rather than serving a stale snapshot.
	_, _, _, err = env.Step(ctx, "look")
	assert.ErrorIs(t, err, ErrNotRunning)
}

// lastGaspTransport delivers one final output chunk and then reports the
// process gone, like an interpreter that prints an epilogue and exits.
type lastGaspTransport struct {
	boot  string
	final string
	alive bool
}

func (t *lastGaspTransport) Start(ctx context.Context) (string, error) {
	t.alive = true
	return t.boot, nil
}

func (t *lastGaspTransport) Send(ctx context.Context, command string) (string, error) {
	if !t.alive {
		return "", transport.ErrClosed
	}
	switch command {
	case "tw-trace-actions":
		return "\n>", nil
	case "tw-extra-infos score":
		return "<score>\n0\n</score>\n>", nil
	}
	t.alive = false
	return t.final, nil
}

func (t *lastGaspTransport) Alive() bool      { return t.alive }
func (t *lastGaspTransport) Terminate() error { t.alive = false; return nil }

func TestEnvironment_TimeoutWhenInterpreterExits(t *testing.T) {
	tr := &lastGaspTransport{
		boot:  "You are drifting.\n>",
		final: "The world dissolves without ceremony.\n",
	}
	env := NewEnvironment(testGame(), tr, testLogger())
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	st, _, done, err := env.Step(ctx, "wait")
	require.NoError(t, err)

	assert.True(t, st.HasTimeout())
	assert.False(t, st.HasWon())
	assert.False(t, st.HasLost())
	assert.True(t, done)

	_, _, _, err = env.Step(ctx, "wait")
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestRender(t *testing.T) {
	env, _ := trackedEnv(t)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	st, _, _, err := env.Step(ctx, "open door")
	require.NoError(t, err)

	human := Render(st, RenderHuman)
	assert.True(t, strings.HasPrefix(human, "> open door\n"))
	assert.Contains(t, human, "You open the door.")

	text := Render(st, RenderText)
	assert.Equal(t, "> open door\nYou open the door.\n", text)

	assert.Equal(t, "", Render(st, RenderSilent))
	assert.Equal(t, "", Render(nil, RenderHuman))
}
