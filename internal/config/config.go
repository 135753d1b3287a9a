package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"model-engine/internal/smodel"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file location relative to the process working directory.
const DefaultPath = "config/smodel.yaml"

// Window holds viewer window settings.
type Window struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	FPS        int  `yaml:"fps"`
}

// Config holds tool settings. Persisted as YAML; SMODEL_* environment variables and command
// line flags override it in that order.
type Config struct {
	// ModelDir is a directory or .zip pack that model files and their imports resolve against.
	ModelDir       string       `yaml:"model_dir"`
	LenientImports bool         `yaml:"lenient_imports"`
	LogLevel       string       `yaml:"log_level"`
	LogFormat      string       `yaml:"log_format"`
	LogFile        string       `yaml:"log_file"`
	Window         Window       `yaml:"window"`
	Preload        []smodel.Ref `yaml:"preload,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ModelDir:  "assets/models",
		LogLevel:  "info",
		LogFormat: "text",
		LogFile:   "logs/smodel.txt",
		Window: Window{
			Width:  1280,
			Height: 720,
			FPS:    60,
		},
	}
}

// Load reads settings from path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path, creating the parent directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Merge returns base with every non-zero field of override applied. A zero field (empty
// string, false, 0) cannot be used to reset a setting.
func Merge(base, override Config) (Config, error) {
	out := base
	out.Preload = append([]smodel.Ref(nil), base.Preload...)
	if err := copier.CopyWithOption(&out, &override, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return base, fmt.Errorf("config: merge: %w", err)
	}
	return out, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvModelDir       = "SMODEL_MODEL_DIR"
	EnvLenientImports = "SMODEL_LENIENT_IMPORTS"
	EnvLogLevel       = "SMODEL_LOG_LEVEL"
	EnvLogFormat      = "SMODEL_LOG_FORMAT"
	EnvLogFile        = "SMODEL_LOG_FILE"
)

// ApplyEnv overrides settings from lookup (usually os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvModelDir:  &c.ModelDir,
		EnvLogLevel:  &c.LogLevel,
		EnvLogFormat: &c.LogFormat,
		EnvLogFile:   &c.LogFile,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup(EnvLenientImports); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvLenientImports, err)
		}
		c.LenientImports = b
	}
	return nil
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q: must be 'text' or 'json'", c.LogFormat)
	}
	if c.ModelDir == "" {
		return errors.New("config: model_dir must not be empty")
	}
	return nil
}
