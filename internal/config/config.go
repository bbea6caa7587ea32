package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Planning PlanningConfig `mapstructure:"planning"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Render   RenderConfig   `mapstructure:"render"`
	Display  DisplayConfig  `mapstructure:"display"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	AssetsDir    string `mapstructure:"assets_dir"`
	ExportName   string `mapstructure:"export_name"`
	FredVersion  string `mapstructure:"fred_version"`
	SecureCookie bool   `mapstructure:"secure"`
	// ModeRateLimit caps mode switches per client per minute; 0 disables it.
	ModeRateLimit int `mapstructure:"mode_rate_limit"`
}

// PlanningConfig points at the remote planning/registration service.
type PlanningConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects where trial and game records are written.
// Backend is one of "remote", "database" or "none".
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// GameConfig holds the ablation game settings.
type GameConfig struct {
	TotalTrials   int     `mapstructure:"total_trials"`
	TargetRadius  float64 `mapstructure:"target_radius"`
	DefaultMargin float64 `mapstructure:"default_margin"`
}

// RenderConfig sizes the two registration surfaces.
type RenderConfig struct {
	Width           int     `mapstructure:"width"`
	Height          int     `mapstructure:"height"`
	Scale           float64 `mapstructure:"scale"`
	OutlineRowMajor bool    `mapstructure:"outline_row_major"`
}

// DisplayConfig locates the per-trial metric filter file. Empty uses the
// built-in filters.
type DisplayConfig struct {
	FiltersPath string `mapstructure:"filters_path"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5002")
	v.SetDefault("server.assets_dir", "assets")
	v.SetDefault("server.export_name", "fred_results.csv")
	v.SetDefault("server.fred_version", "0.1.0")
	v.SetDefault("server.secure", false)
	v.SetDefault("server.mode_rate_limit", 30)

	// Planning service defaults
	v.SetDefault("planning.base_url", "http://localhost:5000")
	v.SetDefault("planning.timeout", "0s") // no timeout, like the browser client

	v.SetDefault("store.backend", "remote")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "fred-db")
	v.SetDefault("database.sqlite_path", "fred.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Game defaults
	v.SetDefault("game.total_trials", 10)
	v.SetDefault("game.target_radius", 10.0)
	v.SetDefault("game.default_margin", 1.0)

	// Surface defaults
	v.SetDefault("render.width", 512)
	v.SetDefault("render.height", 512)
	v.SetDefault("render.scale", 1.0)
	v.SetDefault("render.outline_row_major", true)

	v.SetDefault("display.filters_path", "")
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "remote", "database", "none":
	default:
		return fmt.Errorf("store.backend must be remote, database or none, got %q", c.Store.Backend)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Server.ModeRateLimit < 0 {
		return fmt.Errorf("server.mode_rate_limit must not be negative")
	}
	if c.Planning.BaseURL == "" {
		return fmt.Errorf("planning.base_url is required")
	}
	if c.Game.TotalTrials <= 0 {
		return fmt.Errorf("game.total_trials must be positive, got %d", c.Game.TotalTrials)
	}
	if c.Game.TargetRadius <= 0 {
		return fmt.Errorf("game.target_radius must be positive")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 || c.Render.Scale <= 0 {
		return fmt.Errorf("render width, height and scale must be positive")
	}
	return nil
}

// Store holds the live configuration and swaps it when the file changes.
type Store struct {
	mu        sync.RWMutex
	conf      *Config
	listeners []func(*Config)
}

// Current returns the configuration in effect.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conf
}

func (s *Store) set(c *Config) {
	s.mu.Lock()
	s.conf = c
	listeners := make([]func(*Config), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// OnChange registers fn to run after every successful reload.
func (s *Store) OnChange(fn func(*Config)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// NewStore wraps a fixed configuration; used by tests and tools that do
// not watch a file.
func NewStore(c *Config) *Store {
	return &Store{conf: c}
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) (*Store, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("FRED") // e.g., FRED_PLANNING_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}
	store := NewStore(conf)

	// Hot-reload. A bad edit keeps the previous configuration.
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		next, err := decode(v)
		if err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		store.set(next)
	})

	log.Info("Configuration loaded successfully")
	return store, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &conf, nil
}
