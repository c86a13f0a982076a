package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local single-file database, for play
// without a Redis deployment.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the leaderboard database at the given path.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leaderboard (
		id         TEXT PRIMARY KEY,
		player     TEXT NOT NULL,
		game       TEXT NOT NULL,
		session_id TEXT NOT NULL,
		score      INTEGER NOT NULL,
		max_score  INTEGER NOT NULL,
		moves      INTEGER NOT NULL,
		won        INTEGER NOT NULL DEFAULT 0,
		played_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leaderboard_game_score ON leaderboard(game, score DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Submit(ctx context.Context, entry *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard (id, player, game, session_id, score, max_score, moves, won, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Player, entry.Game, entry.SessionID.String(),
		entry.Score, entry.MaxScore, entry.Moves, entry.Won,
		entry.PlayedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("Failed to submit leaderboard entry", "id", entry.ID, "error", err)
		return fmt.Errorf("failed to submit leaderboard entry: %w", err)
	}

	s.logger.Debug("Leaderboard entry submitted", "id", entry.ID, "game", entry.Game, "score", entry.Score)
	return nil
}

func (s *SQLiteStore) Top(ctx context.Context, gameName string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player, game, session_id, score, max_score, moves, won, played_at
		FROM leaderboard
		WHERE game = ?
		ORDER BY score DESC, played_at DESC
		LIMIT ?`, gameName, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	defer func() {
		_ = rows.Close() // Ignore error in defer
	}()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var sessionID, playedAt string
		if err := rows.Scan(&entry.ID, &entry.Player, &entry.Game, &sessionID,
			&entry.Score, &entry.MaxScore, &entry.Moves, &entry.Won, &playedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if id, err := uuid.Parse(sessionID); err == nil {
			entry.SessionID = id
		}
		if t, err := time.Parse(time.RFC3339Nano, playedAt); err == nil {
			entry.PlayedAt = t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
