package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(body), 0o644))
	return root
}

func TestDefaultsWithoutFile(t *testing.T) {
	store, err := Init(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	conf := store.Current()
	require.Equal(t, "5002", conf.Server.Port)
	require.Equal(t, 30, conf.Server.ModeRateLimit)
	require.Equal(t, "remote", conf.Store.Backend)
	require.Equal(t, 10, conf.Game.TotalTrials)
	require.Equal(t, 1.0, conf.Game.DefaultMargin)
	require.Equal(t, 512, conf.Render.Width)
	require.True(t, conf.Render.OutlineRowMajor)
	require.Zero(t, conf.Planning.Timeout)
}

func TestFileOverridesDefaults(t *testing.T) {
	root := writeConfig(t, `
planning:
  base_url: http://planner:8000
  timeout: 5s
game:
  total_trials: 20
store:
  backend: database
database:
  driver: sqlite
  sqlite_path: results.db
`)
	store, err := Init(root, zap.NewNop())
	require.NoError(t, err)

	conf := store.Current()
	require.Equal(t, "http://planner:8000", conf.Planning.BaseURL)
	require.Equal(t, 5*time.Second, conf.Planning.Timeout)
	require.Equal(t, 20, conf.Game.TotalTrials)
	require.Equal(t, "database", conf.Store.Backend)
	require.Equal(t, "results.db", conf.Database.SQLitePath)
}

func TestInvalidFileIsRejected(t *testing.T) {
	root := writeConfig(t, "game:\n  total_trials: 0\n")
	_, err := Init(root, zap.NewNop())
	require.ErrorContains(t, err, "total_trials")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{ModeRateLimit: 30},
			Planning: PlanningConfig{BaseURL: "http://localhost:5000"},
			Store:    StoreConfig{Backend: "none"},
			Database: DatabaseConfig{Driver: "sqlite"},
			Game:     GameConfig{TotalTrials: 10, TargetRadius: 10},
			Render:   RenderConfig{Width: 512, Height: 512, Scale: 1},
		}
	}
	require.NoError(t, valid().Validate())

	for name, mutate := range map[string]func(*Config){
		"backend":    func(c *Config) { c.Store.Backend = "firestore" },
		"driver":     func(c *Config) { c.Database.Driver = "mysql" },
		"rate limit": func(c *Config) { c.Server.ModeRateLimit = -1 },
		"base url":   func(c *Config) { c.Planning.BaseURL = "" },
		"radius":     func(c *Config) { c.Game.TargetRadius = 0 },
		"scale":      func(c *Config) { c.Render.Scale = 0 },
	} {
		c := valid()
		mutate(c)
		require.Error(t, c.Validate(), name)
	}
}

func TestOnChangeListeners(t *testing.T) {
	store := NewStore(&Config{Game: GameConfig{TotalTrials: 10}})

	var seen []int
	store.OnChange(func(c *Config) { seen = append(seen, c.Game.TotalTrials) })
	store.OnChange(func(c *Config) { seen = append(seen, -c.Game.TotalTrials) })

	store.set(&Config{Game: GameConfig{TotalTrials: 6}})
	require.Equal(t, []int{6, -6}, seen)
	require.Equal(t, 6, store.Current().Game.TotalTrials)
}
