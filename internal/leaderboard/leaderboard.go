// Package leaderboard records finished sessions. It is strictly a sink: the
// session core reports final scores here and never reads them back into game
// state.
package leaderboard

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Entry is one finished session on the board.
type Entry struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	Game      string    `json:"game"`
	SessionID uuid.UUID `json:"session_id"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"max_score"`
	Moves     int       `json:"moves"`
	Won       bool      `json:"won"`
	PlayedAt  time.Time `json:"played_at"`
}

// Store persists leaderboard entries.
type Store interface {
	// Ping tests the store connection.
	Ping(ctx context.Context) error

	// Submit records one finished session.
	Submit(ctx context.Context, entry *Entry) error

	// Top returns up to n entries for a game, best score first, most
	// recent first among equal scores.
	Top(ctx context.Context, gameName string, n int) ([]Entry, error)

	// Close closes the store connection.
	Close() error
}

var entropy = rand.New(rand.NewSource(time.Now().UnixNano()))

// NewEntry stamps a submission with a time-sortable ID and timestamp.
func NewEntry(player, gameName string, sessionID uuid.UUID, score, maxScore, moves int, won bool) *Entry {
	now := time.Now()
	return &Entry{
		ID:        ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		Player:    player,
		Game:      gameName,
		SessionID: sessionID,
		Score:     score,
		MaxScore:  maxScore,
		Moves:     moves,
		Won:       won,
		PlayedAt:  now,
	}
}
