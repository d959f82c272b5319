package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/vango-dev/transitiongroup/internal/errors"
	"github.com/vango-dev/transitiongroup/pkg/transition"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "transitiongroup.json"

	// DefaultPort is the default dev server port.
	DefaultPort = 3100

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"

	// DefaultTickMs is the default transition tick interval.
	DefaultTickMs = 16

	// DefaultDurationMs is the default exit transition duration.
	DefaultDurationMs = 300

	// DefaultEasing is the default exit transition easing.
	DefaultEasing = "outQuad"

	// DefaultKeyAttribute is the default attribute component keys are
	// re-emitted under.
	DefaultKeyAttribute = "Key"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "transitiongroup"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config represents the complete transitiongroup.json configuration.
type Config struct {
	// Reconciler contains reconciler settings.
	Reconciler ReconcilerConfig `json:"reconciler"`

	// Transition contains exit transition settings.
	Transition TransitionConfig `json:"transition"`

	// Dev contains dev server settings.
	Dev DevConfig `json:"dev"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ReconcilerConfig contains reconciler settings.
type ReconcilerConfig struct {
	// MaxRendersPerSecond throttles re-render signals. 0 disables throttling.
	MaxRendersPerSecond uint8 `json:"maxRendersPerSecond"`

	// KeyAttribute is the attribute top-level component keys are re-emitted
	// under. Empty disables it.
	KeyAttribute string `json:"keyAttribute"`
}

// TransitionConfig contains exit transition settings.
type TransitionConfig struct {
	// DurationMs is how long an exit plays.
	DurationMs int `json:"durationMs"`

	// Easing names the easing function (e.g. "outQuad", "linear").
	Easing string `json:"easing"`
}

// DevConfig contains dev server settings.
type DevConfig struct {
	// Host is the host to bind to.
	Host string `json:"host"`

	// Port is the port to listen on.
	Port int `json:"port"`

	// TickMs is the interval transitions are advanced at.
	TickMs int `json:"tickMs"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Reconciler: ReconcilerConfig{
			KeyAttribute: DefaultKeyAttribute,
		},
		Transition: TransitionConfig{
			DurationMs: DefaultDurationMs,
			Easing:     DefaultEasing,
		},
		Dev: DevConfig{
			Host:   DefaultHost,
			Port:   DefaultPort,
			TickMs: DefaultTickMs,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads transitiongroup.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault reads transitiongroup.json from dir, falling back to the
// defaults when the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use the defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in zero values that are never meaningful.
// KeyAttribute is left alone: empty is a valid setting.
func (c *Config) applyDefaults() {
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.TickMs == 0 {
		c.Dev.TickMs = DefaultTickMs
	}
	if c.Transition.Easing == "" {
		c.Transition.Easing = DefaultEasing
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E120").
			WithDetailf("dev.port must be between 0 and 65535, got %d", c.Dev.Port)
	}
	if c.Dev.TickMs <= 0 {
		return errors.New("E120").
			WithDetailf("dev.tickMs must be positive, got %d", c.Dev.TickMs)
	}
	if c.Transition.DurationMs < 0 {
		return errors.New("E120").
			WithDetailf("transition.durationMs must not be negative, got %d", c.Transition.DurationMs)
	}
	if _, ok := transition.Easing(c.Transition.Easing); !ok {
		return errors.New("E120").
			WithDetailf("unknown transition.easing %q", c.Transition.Easing).
			WithSuggestion("Use one of: linear, outQuad, inOutCubic, outBack, ...")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E120").
			WithDetailf("unknown log.level %q", c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}
	return nil
}

// DevAddress returns the dev server listen address.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// TransitionDuration returns the exit transition duration.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.Transition.DurationMs) * time.Millisecond
}

// TickInterval returns the dev server tick interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Dev.TickMs) * time.Millisecond
}

// EasingFunc returns the configured easing function, or ease.OutQuad if the
// name is unknown.
func (c *Config) EasingFunc() ease.TweenFunc {
	if fn, ok := transition.Easing(c.Transition.Easing); ok {
		return fn
	}
	return ease.OutQuad
}

// LogLevel returns the configured level, or slog.LevelInfo if invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
