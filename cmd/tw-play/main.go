package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AhmetY21/TextWorld/internal/config"
	"github.com/AhmetY21/TextWorld/internal/leaderboard"
	"github.com/AhmetY21/TextWorld/internal/logger"
	"github.com/AhmetY21/TextWorld/pkg/agent"
	"github.com/AhmetY21/TextWorld/pkg/game"
	"github.com/AhmetY21/TextWorld/pkg/session"
	"github.com/AhmetY21/TextWorld/pkg/transport"
)

var (
	modeFlag        string
	maxSteps        int
	seedFlag        int64
	playerFlag      string
	leaderboardFlag string
	interpreterFlag string
	topFlag         int
)

var rootCmd = &cobra.Command{
	Use:   "tw-play GAMEFILE",
	Short: "Play a TextWorld game",
	Long: "Drives a compiled TextWorld game through its interpreter and plays it\n" +
		"as a human (console UI) or with an automated agent.",
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&modeFlag, "mode", "m", "human",
		"Play mode: human, random, random-cmd or walkthrough")
	rootCmd.Flags().IntVar(&maxSteps, "max-steps", 100, "Limit maximum number of steps")
	rootCmd.Flags().Int64Var(&seedFlag, "seed", 0, "Seed for the random agents (0 = time-based)")
	rootCmd.Flags().StringVar(&playerFlag, "player", "", "Player name on the leaderboard (default: the mode)")
	rootCmd.Flags().StringVar(&leaderboardFlag, "leaderboard", "sqlite",
		"Leaderboard backend: sqlite, redis or none")
	rootCmd.Flags().StringVar(&interpreterFlag, "interpreter", "",
		"Path to the game interpreter (default: $TW_INTERPRETER)")
	rootCmd.Flags().IntVar(&topFlag, "top", 10, "How many leaderboard entries to show after the game")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.Setup(cfg)

	gamefile := args[0]
	g, err := game.LoadForGameFile(gamefile)
	if err != nil {
		return err
	}

	interpreter := interpreterFlag
	if interpreter == "" {
		interpreter = cfg.InterpreterPath
	}

	tr := transport.NewProcess(interpreter, []string{gamefile, "-q"}, log)
	env := session.NewEnvironment(g, tr, log)
	log = logger.WithSession(log, env.ID().String())

	player := playerFlag
	if player == "" {
		player = modeFlag
	}

	var a agent.Agent
	switch modeFlag {
	case "human":
		if err := env.EnableExtraInfo("description"); err != nil {
			return err
		}
		if err := env.EnableExtraInfo("inventory"); err != nil {
			return err
		}
	case "random":
		a = agent.NewRandom(g, seed())
	case "random-cmd":
		if err := env.ActivateStateTracking(); err != nil {
			return err
		}
		a = agent.NewRandomCommand(seed())
	case "walkthrough":
		if err := env.ActivateStateTracking(); err != nil {
			return err
		}
		if err := env.ComputeIntermediateReward(); err != nil {
			return err
		}
		a = agent.NewWalkthrough()
	default:
		return fmt.Errorf("unknown mode %q", modeFlag)
	}

	board, err := openLeaderboard(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = board.Close() // Ignore error in defer
	}()

	ctx := context.Background()
	st, err := env.Reset(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close() // Ignore error in defer
	}()

	if modeFlag == "human" {
		p := tea.NewProgram(NewPlayUI(env, g), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("console UI failed: %w", err)
		}
	} else {
		if st, err = runAgent(ctx, env, a, st, log); err != nil {
			return err
		}
	}

	return report(ctx, env, g, board, player, log)
}

func seed() int64 {
	if seedFlag != 0 {
		return seedFlag
	}
	return time.Now().UnixNano()
}

// runAgent plays until the game ends, the step budget runs out, or the agent
// gives up.
func runAgent(ctx context.Context, env *session.Environment, a agent.Agent, st *session.GameState, log *slog.Logger) (*session.GameState, error) {
	fmt.Print(session.Render(st, session.RenderText))

	for step := 0; step < maxSteps; step++ {
		command, err := a.Act(st)
		if errors.Is(err, agent.ErrNoCommand) {
			log.Info("agent has no command left", "step", step)
			return st, nil
		}
		if err != nil {
			return st, err
		}

		next, score, done, err := env.Step(ctx, command)
		if errors.Is(err, session.ErrNotRunning) {
			// The interpreter died; the last snapshot is still the result.
			log.Warn("interpreter stopped before the game ended", "step", step)
			return st, nil
		}
		if err != nil {
			return st, err
		}
		st = next

		fmt.Print(session.Render(st, session.RenderText))
		log.Debug("step", "command", command, "score", score, "done", done)
		if done {
			break
		}
	}
	return st, nil
}

func openLeaderboard(cfg *config.Config, log *slog.Logger) (leaderboard.Store, error) {
	switch leaderboardFlag {
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("leaderboard=redis requires REDIS_URL")
		}
		return leaderboard.NewRedisStore(cfg.RedisURL, log), nil
	case "sqlite":
		return leaderboard.NewSQLiteStore(cfg.LeaderboardDB, log)
	case "none":
		return leaderboard.NewMockStore(), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard backend %q", leaderboardFlag)
	}
}

// report submits the final snapshot to the leaderboard and prints the board.
func report(ctx context.Context, env *session.Environment, g *game.Game, board leaderboard.Store, player string, log *slog.Logger) error {
	st := env.State()
	if st == nil {
		return nil
	}

	score, err := st.Score()
	if err != nil {
		log.Warn("final score unavailable", "error", err)
		score = 0
	}

	entry := leaderboard.NewEntry(player, g.Name, env.ID(), score, st.MaxScore(), st.Moves(), st.HasWon())
	if err := board.Submit(ctx, entry); err != nil {
		return err
	}

	fmt.Printf("\nFinal score: %d / %d in %d moves\n", score, st.MaxScore(), st.Moves())

	top, err := board.Top(ctx, g.Name, topFlag)
	if err != nil {
		return err
	}
	if len(top) > 0 {
		fmt.Printf("\nLeaderboard — %s\n", g.Name)
		for i, e := range top {
			fmt.Printf("%3d. %-20s %3d/%3d  (%d moves)\n", i+1, e.Player, e.Score, e.MaxScore, e.Moves)
		}
	}
	return nil
}
