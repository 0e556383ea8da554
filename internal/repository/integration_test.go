package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"hr_project/internal/apperrors"
	"hr_project/internal/database"
	"hr_project/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("set TEST_INTEGRATION=1 to run against a postgres container")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "docker.io/postgres:17-alpine",
		postgres.WithDatabase("hr"),
		postgres.WithUsername("hr"),
		postgres.WithPassword("hr"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	require.NoError(t, database.Ping(ctx, db))

	users := NewUserRepository(db)
	admin := &domain.User{Email: "root@example.com", PasswordHash: "h", Role: domain.ADMIN, IsActive: true}
	require.NoError(t, users.Create(ctx, admin))

	err = users.Create(ctx, &domain.User{Email: "ROOT@example.com", PasswordHash: "h", IsActive: true})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	require.ErrorIs(t, users.Deactivate(ctx, admin.ID), ErrLastAdmin)

	policies := NewPolicyRepository(db)
	require.NoError(t, policies.Create(ctx, &domain.Policy{Title: "100% Remote_Policy", IsActive: true}))
	got, err := policies.Filter(ctx, PolicyFilter{Title: "0% remote_"}, Page{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = policies.Filter(ctx, PolicyFilter{Title: "1_0"}, Page{})
	require.NoError(t, err)
	assert.Empty(t, got)

	announcements := NewAnnouncementRepository(db)
	a := &domain.Announcement{Title: "Hello", Content: "World", AuthorID: &admin.ID, Status: domain.StatusApproved}
	require.NoError(t, announcements.Create(ctx, a, nil))
	rec, err := announcements.MarkRead(ctx, a.ID, admin.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, rec.IsRead)
}
