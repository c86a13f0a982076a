package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmetY21/TextWorld/pkg/transport"
)

// untrackedEnv runs without state tracking: score and endings come from the
// side channel and the end-of-game banners.
func untrackedEnv(t *testing.T, script map[string]string) (*Environment, *transport.Mock) {
	t.Helper()
	m := transport.NewMock(bootText)
	m.Script = map[string]string{
		"tw-extra-infos score":       "<score>\n0\n</score>\n>",
		"tw-extra-infos description": "<description>\nAn old house, silent and dark.\n</description>\n>",
		"tw-extra-infos inventory":   "<inventory>\nYou carry nothing.\n</inventory>\n>",
	}
	for cmd, out := range script {
		m.Script[cmd] = out
	}
	return NewEnvironment(testGame(), m, testLogger()), m
}

func TestGameState_ScoreFromSideChannel(t *testing.T) {
	env, _ := untrackedEnv(t, map[string]string{
		"look": "<score>\n7\n</score>You see a room.\n>",
	})
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	st, score, done, err := env.Step(ctx, "look")
	require.NoError(t, err)

	assert.Equal(t, "You see a room.", st.Feedback())
	assert.Equal(t, 7, score)
	assert.False(t, done)

	fact, err := st.Info("score")
	require.NoError(t, err)
	assert.Equal(t, "7\n", fact)
}

func TestGameState_FactsCarryForward(t *testing.T) {
	env, _ := untrackedEnv(t, map[string]string{
		"look": "<description>\nA dusty attic.\n</description>You look around.\n>",
		"wait": "Time passes.\n>",
	})
	require.NoError(t, env.EnableExtraInfo("description"))

	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	st, _, _, err := env.Step(ctx, "look")
	require.NoError(t, err)
	desc, err := st.Description()
	require.NoError(t, err)
	assert.Equal(t, "A dusty attic.\n", desc)

	// The fact is not re-emitted on the next turn but keeps its last value.
	st, _, _, err = env.Step(ctx, "wait")
	require.NoError(t, err)
	desc, err = st.Description()
	require.NoError(t, err)
	assert.Equal(t, "A dusty attic.\n", desc)
}

func TestGameState_MissingInfo(t *testing.T) {
	env, _ := untrackedEnv(t, nil)
	ctx := context.Background()
	st, err := env.Reset(ctx)
	require.NoError(t, err)

	_, err = st.Description()
	var missingErr *MissingInfoError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "description", missingErr.Info)
}

func TestGameState_BannerEndings(t *testing.T) {
	t.Run("won", func(t *testing.T) {
		env, _ := untrackedEnv(t, map[string]string{
			"open chest": "The chest opens.\n\n    *** The End ***\n>",
		})
		ctx := context.Background()
		_, err := env.Reset(ctx)
		require.NoError(t, err)

		st, _, done, err := env.Step(ctx, "open chest")
		require.NoError(t, err)
		assert.True(t, st.HasWon())
		assert.False(t, st.HasLost())
		assert.True(t, done)
	})

	t.Run("lost", func(t *testing.T) {
		env, _ := untrackedEnv(t, map[string]string{
			"eat mushroom": "It was poisonous.\n\n    *** You lost! ***\n>",
		})
		ctx := context.Background()
		_, err := env.Reset(ctx)
		require.NoError(t, err)

		st, _, done, err := env.Step(ctx, "eat mushroom")
		require.NoError(t, err)
		assert.True(t, st.HasLost())
		assert.False(t, st.HasWon())
		assert.True(t, done)
	})
}

func TestGameState_CapabilityErrors(t *testing.T) {
	env, _ := untrackedEnv(t, nil)
	ctx := context.Background()
	st, err := env.Reset(ctx)
	require.NoError(t, err)

	_, err = st.AdmissibleCommands()
	var stateErr *StateTrackingRequiredError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "admissible_commands", stateErr.Field)

	_, err = st.PolicyCommands()
	var rewardErr *RewardTrackingRequiredError
	require.ErrorAs(t, err, &rewardErr)

	_, err = st.IntermediateReward()
	require.ErrorAs(t, err, &rewardErr)
	assert.Equal(t, "intermediate_reward", rewardErr.Field)
}

func TestGameState_CommandFeedback(t *testing.T) {
	env, _ := untrackedEnv(t, map[string]string{
		"take lamp": "You pick up the lamp.\nAn old house, silent and dark.\n>",
	})
	require.NoError(t, env.EnableExtraInfo("description"))
	require.NoError(t, env.EnableExtraInfo("inventory"))

	ctx := context.Background()
	st, err := env.Reset(ctx)
	require.NoError(t, err)

	// The opening banner is not command feedback.
	feedback, err := st.CommandFeedback()
	require.NoError(t, err)
	assert.Equal(t, "", feedback)

	st, _, _, err = env.Step(ctx, "take lamp")
	require.NoError(t, err)

	// The room description is stripped out, the response kept.
	feedback, err = st.CommandFeedback()
	require.NoError(t, err)
	assert.Equal(t, "You pick up the lamp.", feedback)
}

func TestGameState_GrammarViolationIsFatal(t *testing.T) {
	env, _ := untrackedEnv(t, map[string]string{
		"look": "[foo - succeeded]\n>",
	})
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	_, _, _, err = env.Step(ctx, "look")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching open tag")
}

func TestGameState_MalformedScore(t *testing.T) {
	env, _ := untrackedEnv(t, map[string]string{
		"look": "<score>\nseven\n</score>ok\n>",
	})
	ctx := context.Background()
	_, err := env.Reset(ctx)
	require.NoError(t, err)

	_, _, _, err = env.Step(ctx, "look")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed score")
}
