// Package config loads server settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Dialects understood by the storage layer.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	HTTPAddr string   `yaml:"http_addr"`
	Seed     int64    `yaml:"seed"` // 0 seeds from the clock
	Sim      Sim      `yaml:"sim"`
	Save     Save     `yaml:"save"`
	Database Database `yaml:"database"`
	Tuning   Tuning   `yaml:"tuning"`
}

// Sim controls the tick loop.
type Sim struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	StartPaused  bool          `yaml:"start_paused"`
}

// Save controls autosave and snapshot rotation.
type Save struct {
	Slot             string        `yaml:"slot"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	SnapshotDir      string        `yaml:"snapshot_dir"`
	SnapshotKeep     int           `yaml:"snapshot_keep"`
}

// Database selects and addresses the SQL backend.
type Database struct {
	Dialect     string `yaml:"dialect"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Tuning holds buffer and pool sizes for the network and storage layers.
type Tuning struct {
	BroadcastBuffer   int `yaml:"broadcast_buffer"`
	ClientSendBuffer  int `yaml:"client_send_buffer"`
	DBMaxOpenConns    int `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int `yaml:"db_max_idle_conns"`
	MaxCommandsPerSec int `yaml:"max_commands_per_sec"`
}

// Default returns the built-in configuration.
func Default() Config {
	numCPU := runtime.NumCPU()
	return Config{
		HTTPAddr: ":8080",
		Sim: Sim{
			TickInterval: 20 * time.Millisecond,
		},
		Save: Save{
			Slot:             "main",
			AutosaveInterval: 10 * time.Second,
			SnapshotDir:      filepath.Join("data", "snapshots"),
			SnapshotKeep:     5,
		},
		Database: Database{
			Dialect:    DialectSQLite,
			SQLitePath: filepath.Join("data", "escape.db"),
		},
		Tuning: Tuning{
			BroadcastBuffer:   256,
			ClientSendBuffer:  64,
			DBMaxOpenConns:    numCPU * 4,
			DBMaxIdleConns:    numCPU * 2,
			MaxCommandsPerSec: 100,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if v := env("ESCAPE_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := env("ESCAPE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ESCAPE_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := env("ESCAPE_DB_DIALECT"); v != "" {
		c.Database.Dialect = strings.ToLower(v)
	}
	if v := env("ESCAPE_DB_SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := env("ESCAPE_DB_POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
	} else if v := env("DATABASE_URL"); v != "" && c.Database.PostgresDSN == "" {
		c.Database.PostgresDSN = v
	}
	if v := env("ESCAPE_SNAPSHOT_DIR"); v != "" {
		c.Save.SnapshotDir = v
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Sim.TickInterval <= 0 {
		return errors.New("sim.tick_interval must be positive")
	}
	if c.Save.AutosaveInterval < 0 {
		return errors.New("save.autosave_interval must not be negative")
	}
	switch c.Database.Dialect {
	case DialectSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required for sqlite")
		}
	case DialectPostgres:
		if c.Database.PostgresDSN == "" {
			return errors.New("postgres dialect requires ESCAPE_DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported database dialect %q", c.Database.Dialect)
	}
	return nil
}
