package service

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reviewhub/database"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB opens a fresh in-memory database with the real schema applied.
// The database is named after the test so parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTitle(t *testing.T, db *gorm.DB, name string) *models.Title {
	t.Helper()

	title := &models.Title{Name: name, Year: 2020}
	require.NoError(t, db.Create(title).Error)
	return title
}

func actorFor(user *models.User) permissions.Actor {
	return permissions.Actor{ID: user.ID, Username: user.Username, Role: user.Role}
}
