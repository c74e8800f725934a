// Package config loads taskflow settings from a TOML file, creating it with
// defaults on first launch, and applies TASKFLOW_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/storage"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskflow.db"
	DefaultNotifyBuffer   = 64
	EnvConfigPath         = "TASKFLOW_CONFIG"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type StorageConfig struct {
	Driver string `toml:"driver" env:"TASKFLOW_STORAGE_DRIVER"`
	DSN    string `toml:"dsn" env:"TASKFLOW_STORAGE_DSN"`
}

type LogConfig struct {
	Level string `toml:"level" env:"TASKFLOW_LOG_LEVEL"`
	// File receives log output. Empty discards logs so the terminal UI is
	// never written over.
	File string `toml:"file" env:"TASKFLOW_LOG_FILE"`
}

type UIConfig struct {
	DefaultStatus  string `toml:"default_status" env:"TASKFLOW_UI_DEFAULT_STATUS"`
	NotifyBuffer   int    `toml:"notify_buffer" env:"TASKFLOW_UI_NOTIFY_BUFFER"`
	SeedCategories bool   `toml:"seed_categories" env:"TASKFLOW_UI_SEED_CATEGORIES"`
}

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: storage.DriverSQLite, DSN: DefaultDBName},
		Log:     LogConfig{Level: "INFO"},
		UI: UIConfig{
			NotifyBuffer:   DefaultNotifyBuffer,
			SeedCategories: true,
		},
	}
}

// ResolvePath picks the config file location: $TASKFLOW_CONFIG, then
// $XDG_CONFIG_HOME/taskflow, then ~/.config/taskflow.
func ResolvePath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, "taskflow", DefaultConfigFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", "taskflow", DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first when the file
// does not exist. Environment overrides are applied after the file and a
// relative sqlite DSN is resolved against the config directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("config: env overrides: %w", err)
	}
	cfg.normalize(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize(baseDir string) {
	c.Storage.Driver = strings.TrimSpace(c.Storage.Driver)
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverSQLite
	}
	c.Storage.DSN = strings.TrimSpace(c.Storage.DSN)
	if isSQLite(c.Storage.Driver) {
		if c.Storage.DSN == "" {
			c.Storage.DSN = DefaultDBName
		}
		if isRelativePath(c.Storage.DSN) {
			c.Storage.DSN = filepath.Join(baseDir, c.Storage.DSN)
		}
	}
	c.Log.Level = strings.ToUpper(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	c.UI.DefaultStatus = strings.ToLower(strings.TrimSpace(c.UI.DefaultStatus))
	if c.UI.NotifyBuffer == 0 {
		c.UI.NotifyBuffer = DefaultNotifyBuffer
	}
}

func (c Config) Validate() error {
	if !storage.IsKnownDriver(c.Storage.Driver) {
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Storage.Driver != storage.DriverMemory && c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required for driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if !model.Status(c.UI.DefaultStatus).IsValid() {
		return fmt.Errorf("%w: ui.default_status %q", ErrInvalidConfig, c.UI.DefaultStatus)
	}
	if c.UI.NotifyBuffer <= 0 {
		return fmt.Errorf("%w: ui.notify_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, raw)
	}
}

// NewLogger builds the text logger described by c. The returned closer
// releases the log file and is never nil.
func NewLogger(c LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}
	var (
		w      io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func isSQLite(driver string) bool {
	return driver == storage.DriverSQLite || driver == storage.DriverSQLitePureGo
}

func isRelativePath(dsn string) bool {
	return !filepath.IsAbs(dsn) && !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:")
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
