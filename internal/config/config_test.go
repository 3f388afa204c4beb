package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEnv = `DB_HOST=localhost
DB_USER=relay
DB_PASSWORD=secret
DB_NAME=ctransfer
DB_PORT=5432
SERVER_PORT=8000
`

func writeEnv(t *testing.T, content string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	require.NoError(t, os.WriteFile(".env", []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	writeEnv(t, validEnv)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(100), cfg.MaxFileSizeMB)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSizeBytes())
	assert.Equal(t, 5, cfg.DailyCodeLimit)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoadMissingRequired(t *testing.T) {
	writeEnv(t, "DB_HOST=localhost\n")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	writeEnv(t, validEnv)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t,
		"host=localhost user=relay password=secret dbname=ctransfer port=5432 sslmode=disable",
		cfg.DSN())
}

func TestAllowedOriginsSplitsList(t *testing.T) {
	writeEnv(t, validEnv+"CORS_ORIGINS=https://a.example, https://b.example\n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}
