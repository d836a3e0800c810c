package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/depot/internal/errors"
	"github.com/vango-dev/depot/pkg/reactive"
)

const (
	// JSONFileName is the name of the JSON configuration file.
	JSONFileName = "depot.json"

	// YAMLFileName is the name of the YAML configuration file.
	YAMLFileName = "depot.yaml"

	// DefaultProfile is the bench profile used when none is selected.
	DefaultProfile = "standard"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "depot"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "depot"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// fileNames lists the configuration files Load looks for, in order.
var fileNames = []string{YAMLFileName, "depot.yml", JSONFileName}

// Config represents the complete depot configuration file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Bench contains benchmark settings.
	Bench BenchConfig `json:"bench,omitempty" yaml:"bench,omitempty"`

	// Metrics contains Prometheus plugin settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry plugin settings.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Hydrate contains state hydration settings.
	Hydrate HydrateConfig `json:"hydrate,omitempty" yaml:"hydrate,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// BenchConfig contains benchmark settings.
type BenchConfig struct {
	// Profile is the default profile name.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// Profiles adds profiles or overrides the built-in ones.
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// Profile describes one benchmark workload.
type Profile struct {
	// Stores is the number of counter stores exercised.
	Stores int `json:"stores" yaml:"stores"`

	// Iterations is the number of actions run per store.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Subscribers is the number of subscriptions per store.
	Subscribers int `json:"subscribers" yaml:"subscribers"`

	// PatchEvery issues a patch after every N actions (0 disables patches).
	PatchEvery int `json:"patchEvery,omitempty" yaml:"patchEvery,omitempty"`

	// Flush is the subscription flush mode: "pre", "post" or "sync".
	Flush string `json:"flush,omitempty" yaml:"flush,omitempty"`
}

// MetricsConfig contains Prometheus plugin settings.
type MetricsConfig struct {
	// Enabled installs the metrics plugin.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry plugin settings.
type TracingConfig struct {
	// Enabled installs the tracing plugin.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TracerName is the tracer name.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// HydrateConfig contains state hydration settings.
type HydrateConfig struct {
	// Seed is the path of a YAML or JSON file mapping store ids to state.
	Seed string `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// JSON selects the JSON handler instead of the text handler.
	JSON bool `json:"json,omitempty" yaml:"json,omitempty"`
}

// builtinProfiles are always available and may be overridden by name.
var builtinProfiles = map[string]Profile{
	"fast": {
		Stores:      4,
		Iterations:  1_000,
		Subscribers: 2,
		PatchEvery:  10,
		Flush:       "sync",
	},
	"standard": {
		Stores:      16,
		Iterations:  10_000,
		Subscribers: 4,
		PatchEvery:  10,
		Flush:       "pre",
	},
	"stress": {
		Stores:      64,
		Iterations:  50_000,
		Subscribers: 16,
		PatchEvery:  5,
		Flush:       "post",
	},
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory. It looks for
// depot.yaml, depot.yml and depot.json, in that order.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E102").
		WithDetail("No depot.yaml or depot.json found in " + dir).
		WithSuggestion("Create depot.yaml or pass --config")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E102").
				WithDetail("Config file not found: " + path)
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E102").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E102").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Bench.Profile == "" {
		c.Bench.Profile = DefaultProfile
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.Profile(c.Bench.Profile); err != nil {
		return err
	}
	for name, p := range c.Bench.Profiles {
		if p.Stores <= 0 || p.Iterations <= 0 || p.Subscribers < 0 || p.PatchEvery < 0 {
			return errors.New("E102").
				WithDetail("Profile " + name + " needs positive stores and iterations")
		}
		if _, err := reactive.ParseFlushMode(p.Flush); err != nil {
			return errors.New("E102").
				WithDetail("Profile " + name + ": " + err.Error())
		}
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return errors.New("E102").
			WithDetail("Unknown log level " + c.Log.Level)
	}
	return nil
}

// Profile returns the named bench profile. Profiles from the file take
// precedence over the built-in ones.
func (c *Config) Profile(name string) (Profile, error) {
	if p, ok := c.Bench.Profiles[name]; ok {
		return p, nil
	}
	if p, ok := builtinProfiles[name]; ok {
		return p, nil
	}
	return Profile{}, errors.New("E140").
		WithDetail("No profile named " + name).
		WithSuggestion("Use one of: " + strings.Join(c.ProfileNames(), ", "))
}

// ProfileNames returns the available profile names, sorted.
func (c *Config) ProfileNames() []string {
	seen := make(map[string]bool)
	for name := range builtinProfiles {
		seen[name] = true
	}
	for name := range c.Bench.Profiles {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LogLevel returns the configured log level, info if it does not parse.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SeedPath returns the seed path resolved against the config directory.
func (c *Config) SeedPath() string {
	if c.Hydrate.Seed == "" || filepath.IsAbs(c.Hydrate.Seed) {
		return c.Hydrate.Seed
	}
	return filepath.Join(c.Dir(), c.Hydrate.Seed)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range fileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a depot config file, or an error if not
// found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E102").
				WithDetail("No depot config found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
