package leaderboard

import (
	"context"
	"sort"
)

// MockStore is an in-memory Store for tests and for play without any
// persistence configured.
type MockStore struct {
	Entries []Entry
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates an empty in-memory leaderboard.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Ping(ctx context.Context) error { return nil }

func (m *MockStore) Submit(ctx context.Context, entry *Entry) error {
	m.Entries = append(m.Entries, *entry)
	return nil
}

func (m *MockStore) Top(ctx context.Context, gameName string, n int) ([]Entry, error) {
	var entries []Entry
	for _, e := range m.Entries {
		if e.Game == gameName {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayedAt.After(entries[j].PlayedAt)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (m *MockStore) Close() error { return nil }
