package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./bakery.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"هيثم", "وجيه", "المفرش", "علي", "درهم"}, cfg.Distributors)
	assert.Equal(t, "كاش", cfg.CashAccount)
	assert.Len(t, cfg.OtherItems, 4)
	assert.Equal(t, 10, cfg.ExportRateLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BAKERY_ADDR", ":9090")
	t.Setenv("BAKERY_DISTRIBUTORS", "أ,ب")
	t.Setenv("BAKERY_LOG_FORMAT", "console")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"أ", "ب"}, cfg.Distributors)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_TrimsNameLists(t *testing.T) {
	// GIVEN: lists written with a space after each comma
	t.Setenv("BAKERY_DISTRIBUTORS", "هيثم, وجيه")
	t.Setenv("BAKERY_OTHER_ITEMS", "كيك , خبز")
	t.Setenv("BAKERY_CASH_ACCOUNT", " كاش ")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	// THEN: the names match what sales lines store
	assert.Equal(t, []string{"هيثم", "وجيه"}, cfg.Distributors)
	assert.Equal(t, []string{"كيك", "خبز"}, cfg.OtherItems)
	assert.Equal(t, "كاش", cfg.CashAccount)
	assert.False(t, cfg.FoldAccountNames)
}

func TestLoad_EnvFile(t *testing.T) {
	// GIVEN: a .env file with a database path
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BAKERY_DB_PATH=/tmp/test-bakery.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BAKERY_DB_PATH") })

	// WHEN: loading it
	cfg, err := Load(path)

	// THEN: the value is picked up
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-bakery.db", cfg.DBPath)
}

func TestLoad_RejectsInvalidLevel(t *testing.T) {
	t.Setenv("BAKERY_LOG_LEVEL", "verbose")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate_CashAccountNotDistributor(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	cfg.Distributors = append(cfg.Distributors, cfg.CashAccount)
	assert.Error(t, cfg.Validate())
}
