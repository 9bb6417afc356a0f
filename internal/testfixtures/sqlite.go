package testfixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xenn00/chat-core/internal/entity"
	"github.com/xenn00/chat-core/state"
)

// NewSQLiteState returns an AppState backed by a migrated SQLite file in a
// temporary directory. The database is closed when the test ends.
func NewSQLiteState(tb testing.TB) *state.AppState {
	tb.Helper()

	db, err := state.InitSQLite(filepath.Join(tb.TempDir(), "chat.db"))
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}
	if err := state.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate sqlite: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	appState := &state.AppState{Ctx: ctx, Cancel: cancel, DB: db}
	tb.Cleanup(func() {
		cancel()
		appState.Close()
	})
	return appState
}

// SeedUsers inserts one activated user per id with login "user<id>".
func SeedUsers(tb testing.TB, appState *state.AppState, ids ...int64) []*entity.User {
	tb.Helper()

	users := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		u := &entity.User{
			ID:        id,
			Login:     fmt.Sprintf("user%d", id),
			FirstName: fmt.Sprintf("First%d", id),
			Email:     fmt.Sprintf("user%d@example.com", id),
			Activated: true,
		}
		if err := appState.DB.Create(u).Error; err != nil {
			tb.Fatalf("failed to seed user %d: %v", id, err)
		}
		users = append(users, u)
	}
	return users
}
