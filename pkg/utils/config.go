package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/units"
)

// EnvPrefix prefixes environment overrides, e.g. BALLISTICS_SERVER_ADDR.
const EnvPrefix = "BALLISTICS"

// Config represents the application configuration
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Runner     RunnerConfig     `yaml:"runner" mapstructure:"runner"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SimulationConfig is a launch configuration as the user writes it. Every
// field is a number with an optional unit, see package units.
type SimulationConfig struct {
	Lat            string `yaml:"lat" mapstructure:"lat" json:"lat"`
	Lon            string `yaml:"lon" mapstructure:"lon" json:"lon"`
	Height         string `yaml:"height" mapstructure:"height" json:"height"`
	Azm            string `yaml:"azm" mapstructure:"azm" json:"azm"`
	Alt            string `yaml:"alt" mapstructure:"alt" json:"alt"`
	Speed          string `yaml:"speed" mapstructure:"speed" json:"speed"`
	Radius         string `yaml:"radius" mapstructure:"radius" json:"radius"`
	RotationPeriod string `yaml:"rotation_period" mapstructure:"rotation_period" json:"rotation_period"`
	DeltaTime      string `yaml:"delta_time" mapstructure:"delta_time" json:"delta_time"`
	LogInterval    string `yaml:"log_interval" mapstructure:"log_interval" json:"log_interval"`
	GSurfaceAcc    string `yaml:"g_surface_acc" mapstructure:"g_surface_acc" json:"g_surface_acc"`
}

// RunnerConfig controls how runs are driven
type RunnerConfig struct {
	BatchSteps int `yaml:"batch_steps" mapstructure:"batch_steps"`
	MaxSteps   int `yaml:"max_steps" mapstructure:"max_steps"` // 0 = until impact
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr           string `yaml:"addr" mapstructure:"addr"`
	StreamInterval string `yaml:"stream_interval" mapstructure:"stream_interval"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Simulation: DefaultSimulation(),
		Runner: RunnerConfig{
			BatchSteps: 5000,
			MaxSteps:   0,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			StreamInterval: "250ms",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultSimulation is a 45° shot fired east from the equator of an
// Earth-sized body.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		Lat:            "0",
		Lon:            "0",
		Height:         "10 m",
		Azm:            "90",
		Alt:            "45",
		Speed:          "1000 m/s",
		Radius:         "6371 km",
		RotationPeriod: "86164",
		DeltaTime:      "0.01",
		LogInterval:    "1",
		GSurfaceAcc:    "9.81",
	}
}

// LoadConfig reads the configuration from path. With an empty path it
// searches $HOME/.ballistics, the working directory and ./configs for
// config.yaml and falls back to defaults when none exists. Environment
// variables override file values in both cases.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// missing from the file.
func setDefaults(v *viper.Viper, c *Config) {
	s := c.Simulation
	for key, val := range map[string]any{
		"simulation.lat":             s.Lat,
		"simulation.lon":             s.Lon,
		"simulation.height":          s.Height,
		"simulation.azm":             s.Azm,
		"simulation.alt":             s.Alt,
		"simulation.speed":           s.Speed,
		"simulation.radius":          s.Radius,
		"simulation.rotation_period": s.RotationPeriod,
		"simulation.delta_time":      s.DeltaTime,
		"simulation.log_interval":    s.LogInterval,
		"simulation.g_surface_acc":   s.GSurfaceAcc,
		"runner.batch_steps":         c.Runner.BatchSteps,
		"runner.max_steps":           c.Runner.MaxSteps,
		"server.addr":                c.Server.Addr,
		"server.stream_interval":     c.Server.StreamInterval,
		"log.level":                  c.Log.Level,
		"log.format":                 c.Log.Format,
	} {
		v.SetDefault(key, val)
	}
}

// SaveConfig writes config as YAML to path, or to the default location when
// path is empty. It returns the path written.
func SaveConfig(config *Config, path string) (string, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func configDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ballistics"), nil
}

// GetConfigPath returns the path to the default config file
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if _, err := config.Simulation.LaunchConfig(); err != nil {
		return err
	}

	if config.Runner.BatchSteps <= 0 {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "runner.batch_steps must be positive, got %d", config.Runner.BatchSteps)
	}
	if config.Runner.MaxSteps < 0 {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "runner.max_steps cannot be negative, got %d", config.Runner.MaxSteps)
	}

	if _, err := config.Server.StreamEvery(); err != nil {
		return err
	}

	switch config.Log.Format {
	case "console", "json":
	default:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "log.format must be console or json, got %q", config.Log.Format)
	}

	return nil
}

// LaunchConfig converts the display strings to SI units and checks the
// values the engine cannot run with.
func (s SimulationConfig) LaunchConfig() (ballistic.LaunchConfig, error) {
	var (
		cfg ballistic.LaunchConfig
		err error
	)

	fields := []struct {
		name  string
		raw   string
		parse func(string) (float64, error)
		dst   *float64
	}{
		{"lat", s.Lat, units.ParseAngle, &cfg.Lat},
		{"lon", s.Lon, units.ParseAngle, &cfg.Lon},
		{"height", s.Height, units.ParseDistance, &cfg.Height},
		{"azm", s.Azm, units.ParseAngle, &cfg.Azm},
		{"alt", s.Alt, units.ParseAngle, &cfg.Alt},
		{"speed", s.Speed, units.ParseSpeed, &cfg.Speed},
		{"radius", s.Radius, units.ParseDistance, &cfg.Radius},
		{"rotation_period", s.RotationPeriod, units.ParseDuration, &cfg.RotationPeriod},
		{"delta_time", s.DeltaTime, units.ParseDuration, &cfg.DeltaTime},
		{"log_interval", s.LogInterval, units.ParseDuration, &cfg.LogInterval},
		{"g_surface_acc", s.GSurfaceAcc, units.ParseNumber, &cfg.GSurfaceAcc},
	}
	for _, f := range fields {
		if *f.dst, err = f.parse(f.raw); err != nil {
			return cfg, fmt.Errorf("simulation.%s: %w", f.name, err)
		}
	}

	return cfg, ValidateLaunch(cfg)
}

// ValidateLaunch rejects configurations the engine would run with but that
// never terminate or never sample.
func ValidateLaunch(cfg ballistic.LaunchConfig) error {
	switch {
	case !(cfg.Radius > 0):
		return errorsmod.Wrapf(types.ErrInvalidConfig, "radius must be positive, got %g", cfg.Radius)
	case !(cfg.DeltaTime > 0):
		return errorsmod.Wrapf(types.ErrInvalidConfig, "delta_time must be positive, got %g", cfg.DeltaTime)
	case cfg.RotationPeriod == 0:
		return errorsmod.Wrap(types.ErrInvalidConfig, "rotation_period cannot be zero")
	case cfg.LogInterval < 0:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "log_interval cannot be negative, got %g", cfg.LogInterval)
	case cfg.LogInterval > 0 && cfg.LogInterval < cfg.DeltaTime:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "log_interval %g is shorter than delta_time %g", cfg.LogInterval, cfg.DeltaTime)
	case cfg.Height < 0:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "height cannot be negative, got %g", cfg.Height)
	case cfg.Speed < 0:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "speed cannot be negative, got %g", cfg.Speed)
	case cfg.GSurfaceAcc < 0:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "g_surface_acc cannot be negative, got %g", cfg.GSurfaceAcc)
	}
	return nil
}

// StreamEvery parses the stream interval.
func (s ServerConfig) StreamEvery() (time.Duration, error) {
	d, err := time.ParseDuration(s.StreamInterval)
	if err != nil {
		return 0, errorsmod.Wrapf(types.ErrInvalidConfig, "server.stream_interval: %v", err)
	}
	if d <= 0 {
		return 0, errorsmod.Wrapf(types.ErrInvalidConfig, "server.stream_interval must be positive, got %s", d)
	}
	return d, nil
}
