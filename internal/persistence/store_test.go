package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "servicedesk.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("servicedesk.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:x.db?mode=rwc"))
}

func TestOpenStore_SQLiteFileIsReusable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "servicedesk.db")
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverSQLite},
		SQLite:  config.SQLiteConfig{Path: path},
	}

	store, err := OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	user := &domain.User{FullName: "Ana Admin", Username: "ana", SecretHash: "x", Role: domain.RoleAdmin}
	require.NoError(t, store.Repos.Users.Create(ctx, user))
	store.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Reopening runs the schema step again without duplicating roles.
	store, err = OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	found, err := store.Repos.Users.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, found.Role)

	var roles int64
	require.NoError(t, store.sqlite.DB.Table("roles").Count(&roles).Error)
	assert.EqualValues(t, len(domain.Roles), roles)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "oracle"}}, zap.NewNop())
	require.Error(t, err)
}

func TestOpenStore_Postgres(t *testing.T) {
	dsn := os.Getenv("SERVICEDESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SERVICEDESK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	cfg := &config.Config{
		Storage:  config.StorageConfig{Driver: config.DriverPostgres, RunMigrations: true},
		Postgres: config.PostgresConfig{DSN: dsn, MaxConns: 2},
	}
	store, err := OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Migrate(ctx))

	username := "pg-" + t.Name()
	user := &domain.User{FullName: "Pg User", Username: username, SecretHash: "x", Role: domain.RoleTechnician}
	require.NoError(t, store.Repos.Users.Create(ctx, user))
	defer func() { _ = store.Repos.Users.Delete(ctx, user.ID) }()

	dup := &domain.User{FullName: "Pg User", Username: username, SecretHash: "y", Role: domain.RoleTechnician}
	assert.ErrorIs(t, store.Repos.Users.Create(ctx, dup), repository.ErrDuplicate)
}
