package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tropicaldog17/vngold/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 600*time.Second, cfg.CacheTTL())
	assert.Equal(t, []string{"1D", "1W", "1M", "1Y", "3Y"}, labels(cfg.History.Periods))
	assert.Equal(t, 1095, cfg.History.LongestPeriodDays())
	assert.True(t, cfg.History.UsesSeedFallback("3Y"))
	assert.False(t, cfg.History.UsesSeedFallback("1M"))
}

func TestLoad_FileThenEnv(t *testing.T) {
	chdir(t, t.TempDir())
	first := writeFile(t, "a.toml", `
[cache]
ttl_seconds = 60

[storage]
driver = "sqlite"
`)
	second := writeFile(t, "b.toml", `
[cache]
ttl_seconds = 120

[[history.periods]]
label = "1W"
days = 7

[[history.periods]]
label = "1Y"
days = 365
`)
	t.Setenv("VNGOLD_STORE_DRIVER", "json")

	cfg, err := Load(first, second)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Cache.TTLSeconds)
	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, []string{"1W", "1Y"}, labels(cfg.History.Periods))
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VNGOLD_SERVER_PORT=9090\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	os.Unsetenv("VNGOLD_SERVER_PORT")
}

func TestLoad_RejectsBadDriver(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "bad.toml", "[storage]\ndriver = \"mongo\"\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestParsePeriods(t *testing.T) {
	periods, err := ParsePeriods("1D=1, 1M=30")
	require.NoError(t, err)
	assert.Equal(t, []models.Period{{Label: "1D", Days: 1}, {Label: "1M", Days: 30}}, periods)

	_, err = ParsePeriods("1D")
	assert.Error(t, err)
	_, err = ParsePeriods("1D=0")
	assert.Error(t, err)
}

func TestValidate_DuplicatePeriod(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.History.Periods = append(cfg.History.Periods, models.Period{Label: "1D", Days: 2})
	assert.Error(t, cfg.Validate())
}

func TestValidate_RefreshInterval(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.RefreshIntervalSeconds = 0
	assert.Error(t, cfg.Validate())
}

func labels(periods []models.Period) []string {
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Label)
	}
	return out
}
