// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hr_project/internal/database"
	"hr_project/internal/domain"
	"hr_project/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a private in-memory database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// UserOpts describes a user to insert with CreateUser.
type UserOpts struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Department string
	Role       domain.Role
	Inactive   bool
}

// CreateUser inserts a user directly, bypassing repository checks.
func CreateUser(t *testing.T, db *gorm.DB, opts UserOpts) *domain.User {
	t.Helper()
	if opts.Password == "" {
		opts.Password = "password123"
	}
	if opts.Email == "" {
		opts.Email = uuid.NewString()[:8] + "@example.com"
	}
	hash, err := utils.HashPassword(opts.Password)
	require.NoError(t, err)

	user := &domain.User{
		Email:        opts.Email,
		PasswordHash: hash,
		FirstName:    opts.FirstName,
		LastName:     opts.LastName,
		Department:   opts.Department,
		Role:         opts.Role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	if opts.Inactive {
		require.NoError(t, db.Model(user).Update("is_active", false).Error)
		user.IsActive = false
	}
	return user
}

// Clock returns a fixed time source.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
