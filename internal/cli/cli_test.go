package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository/gormstore"
)

func setupDeskEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servicedesk.db")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProvisionAdmin(t *testing.T) {
	path := setupDeskEnv(t)

	out, err := execute(t, "s3cret\n", "provision-admin", "--secret-stdin", "--username", "root", "--full-name", "Root User")
	require.NoError(t, err)
	assert.Contains(t, out, `administrator "root" created`)

	lite, err := persistence.NewSQLite(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	defer lite.Close()

	user, err := gormstore.NewSet(lite.DB).Users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "Root User", user.FullName)
	assert.NoError(t, auth.CompareSecret(user.SecretHash, "s3cret"))
}

func TestProvisionAdmin_DuplicateFails(t *testing.T) {
	setupDeskEnv(t)

	_, err := execute(t, "one\n", "provision-admin", "--secret-stdin")
	require.NoError(t, err)

	_, err = execute(t, "two\n", "provision-admin", "--secret-stdin")
	assert.Error(t, err)
}

func TestProvisionAdmin_EmptySecret(t *testing.T) {
	setupDeskEnv(t)

	_, err := execute(t, "\n", "provision-admin", "--secret-stdin")
	assert.ErrorContains(t, err, "empty secret")
}

func TestMigrate(t *testing.T) {
	setupDeskEnv(t)

	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date (sqlite)")

	out, err = execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date (sqlite)")
}
