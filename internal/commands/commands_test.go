package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintracker/internal/config"
	"fintracker/internal/util"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "data", "fintrack.db")
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "budget_category: Budget")

	_, err = run(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "config", "init", path, "--force")
	require.NoError(t, err)
}

func TestTokenIssuesVerifiableToken(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) { c.Auth.JWTSecret = "dev-secret" })

	out, err := run(t, "--config", path, "token", "--owner", "alice", "--email", "a@example.com")
	require.NoError(t, err)

	claims, err := util.ParseToken("dev-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Owner())
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestTokenRequiresSecret(t *testing.T) {
	path := writeConfig(t, nil)

	_, err := run(t, "--config", path, "token", "--owner", "alice")
	require.Error(t, err)
}

func TestTokenRequiresOwner(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) { c.Auth.JWTSecret = "dev-secret" })

	_, err := run(t, "--config", path, "token")
	require.Error(t, err)
}

func TestMigrateAndExport(t *testing.T) {
	path := writeConfig(t, nil)

	out, err := run(t, "--config", path, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	_, err = run(t, "--config", path, "export", "--owner", "alice", "--out", csvPath)
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Kind,Category,Amount,Description,Balance"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, nil)

	_, err := run(t, "--config", path, "export", "--owner", "alice", "--format", "pdf")
	require.Error(t, err)
}
