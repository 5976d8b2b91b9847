// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"teamtasks-backend/internal/db"
	"teamtasks-backend/internal/model"
)

var dbSeq atomic.Int64

// NewTestDB opens a private in-memory SQLite database with all migrations
// applied and foreign keys enforced. It is closed when the test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	// One connection keeps every goroutine on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return gormDB
}

// MustCreateUser inserts a user with a fixed password.
func MustCreateUser(t *testing.T, gormDB *gorm.DB, username string) model.User {
	t.Helper()

	user := model.User{Username: username}
	if err := user.SetPassword("password123"); err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if err := gormDB.Create(&user).Error; err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

// MustCreateTeam inserts a team with the given members.
func MustCreateTeam(t *testing.T, gormDB *gorm.DB, name string, members ...model.User) model.Team {
	t.Helper()

	team := model.Team{Name: name}
	for i := range members {
		team.Members = append(team.Members, &members[i])
	}
	if err := gormDB.Create(&team).Error; err != nil {
		t.Fatalf("creating team %s: %v", name, err)
	}
	return team
}
