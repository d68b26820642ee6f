package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"loglens/internal/app/errors"
)

// Config represents the application configuration
type Config struct {
	Workspace string   `yaml:"workspace"`
	Include   []string `yaml:"include"`
	Ignore    []string `yaml:"ignore"`

	Output     string `yaml:"output"`
	Summary    string `yaml:"summary"`
	Highlights string `yaml:"highlights"`
	Socket     string `yaml:"socket"`

	Limits struct {
		MaxFiles           int `yaml:"maxFiles"`
		MaxFilesPerService int `yaml:"maxFilesPerService"`
	} `yaml:"limits"`

	Session struct {
		Window time.Duration `yaml:"window"`
	} `yaml:"session"`

	Regen struct {
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"regen"`

	Protocol struct {
		Buffer  int           `yaml:"buffer"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"protocol"`

	Concurrency struct {
		Workers int `yaml:"workers"`
	} `yaml:"concurrency"`

	Display struct {
		Emoji             bool `yaml:"emoji"`
		RedactIdentifiers bool `yaml:"redactIdentifiers"`
	} `yaml:"display"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Reporting struct {
		DSN string `yaml:"dsn"`
	} `yaml:"reporting"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Workspace:  ".",
		Include:    []string{"**/*.log", "**/*.txt"},
		Ignore:     []string{"**/node_modules/**", "**/.git/**", "**/vendor/**", "**/dist/**"},
		Output:     DocumentFileName,
		Summary:    SummaryFileName,
		Highlights: HighlightsFileName,
		Socket:     filepath.Join(os.TempDir(), SocketPrefix+"default"+SocketSuffix),
	}

	cfg.Limits.MaxFiles = MaxDiscoveredFiles
	cfg.Limits.MaxFilesPerService = MaxLogFilesPerService

	cfg.Session.Window = SessionWindow
	cfg.Regen.Debounce = RegenDebounce

	cfg.Protocol.Buffer = ProtocolBufferSize
	cfg.Protocol.Timeout = DefaultResponseTimeout

	cfg.Concurrency.Workers = MaxWorkers

	cfg.Display.Emoji = false
	cfg.Display.RedactIdentifiers = true

	cfg.Logging.Level = DefaultLogLevel
	cfg.Logging.Format = DefaultLogFormat

	return cfg
}

// Load loads the configuration from loglens.yaml, falling back to defaults
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, errors.ErrFailedToReadConfig
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.ErrFailedToReadConfig
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ErrFailedToParseConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace must not be empty")
	}

	if len(c.Include) == 0 {
		return fmt.Errorf("include patterns must not be empty")
	}

	if c.Limits.MaxFiles <= 0 {
		return fmt.Errorf("limits.maxFiles must be positive")
	}

	if c.Limits.MaxFilesPerService <= 0 {
		return fmt.Errorf("limits.maxFilesPerService must be positive")
	}

	if c.Session.Window <= 0 {
		return fmt.Errorf("session.window must be positive")
	}

	if c.Regen.Debounce < 0 {
		return fmt.Errorf("regen.debounce must not be negative")
	}

	if c.Protocol.Buffer <= 0 {
		return fmt.Errorf("protocol.buffer must be positive")
	}

	if c.Concurrency.Workers <= 0 {
		return fmt.Errorf("concurrency.workers must be positive")
	}

	return nil
}
