// Package config provides configuration management for riotts using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files (.riotts.yml), environment
// variable overrides with the RIOTTS_ prefix, defaults, and validation. It
// carries the preprocessor paths, the lint engine, component scanning paths,
// build output settings, the watcher debounce, and logging.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/validation"
)

type Config struct {
	Preprocessor PreprocessorConfig `yaml:"preprocessor" mapstructure:"preprocessor"`
	Lint         LintConfig         `yaml:"lint" mapstructure:"lint"`
	Components   ComponentsConfig   `yaml:"components" mapstructure:"components"`
	Build        BuildConfig        `yaml:"build" mapstructure:"build"`
	Watch        WatchConfig        `yaml:"watch" mapstructure:"watch"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	TargetFiles  []string           `yaml:"-" mapstructure:"-"` // CLI arguments, not from config file
}

// PreprocessorConfig holds the TypeScript preprocessor paths. Empty paths
// are derived from the working directory by the preprocessor.
type PreprocessorConfig struct {
	SourcePath            string   `yaml:"source_path" mapstructure:"source_path"`
	RiotTypingsPath       string   `yaml:"riot_typings_path" mapstructure:"riot_typings_path"`
	AdditionalTypings     []string `yaml:"additional_typings" mapstructure:"additional_typings"`
	TSConfigPath          string   `yaml:"tsconfig_path" mapstructure:"tsconfig_path"`
	DisableCustomResolver bool     `yaml:"disable_custom_resolver" mapstructure:"disable_custom_resolver"`
	LogModuleResolution   bool     `yaml:"log_module_resolution" mapstructure:"log_module_resolution"`
	TypeCheck             bool     `yaml:"type_check" mapstructure:"type_check"`
	TSCCommand            string   `yaml:"tsc_command" mapstructure:"tsc_command"`
}

type LintConfig struct {
	Engine     string `yaml:"engine" mapstructure:"engine"`
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
	Command    string `yaml:"command" mapstructure:"command"`
}

type ComponentsConfig struct {
	ScanPaths       []string `yaml:"scan_paths" mapstructure:"scan_paths"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

type BuildConfig struct {
	OutDir     string `yaml:"out_dir" mapstructure:"out_dir"`
	Jobs       int    `yaml:"jobs" mapstructure:"jobs"`
	SourceMaps bool   `yaml:"source_maps" mapstructure:"source_maps"`
	// Components also writes the rewritten .riot file next to the code.
	Components bool `yaml:"components" mapstructure:"components"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Supported lint engines.
var lintEngines = []string{"eslint", "builtin"}

// Load reads the configuration from the global viper instance, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "decoding configuration")
	}

	applyDefaults(v, &config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(v *viper.Viper, config *Config) {
	// Handle slices set from environment variables as a single string
	if v.IsSet("components.scan_paths") && len(config.Components.ScanPaths) <= 1 {
		config.Components.ScanPaths = v.GetStringSlice("components.scan_paths")
	}
	if len(config.Components.ScanPaths) == 0 {
		config.Components.ScanPaths = []string{"./src"}
	}
	if !v.IsSet("components.exclude_patterns") && len(config.Components.ExcludePatterns) == 0 {
		config.Components.ExcludePatterns = []string{"node_modules", ".git", "*.bak"}
	}

	if config.Lint.Engine == "" {
		config.Lint.Engine = "eslint"
	}
	if config.Lint.Command == "" {
		config.Lint.Command = "eslint"
	}
	if config.Preprocessor.TSCCommand == "" {
		config.Preprocessor.TSCCommand = "tsc"
	}

	if config.Build.OutDir == "" {
		config.Build.OutDir = "dist"
	}
	if config.Build.Jobs == 0 {
		config.Build.Jobs = runtime.NumCPU()
	}
	if !v.IsSet("build.source_maps") {
		config.Build.SourceMaps = true
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}

	if v.IsSet("log-level") && !v.IsSet("log.level") {
		config.Log.Level = v.GetString("log-level")
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	var vec errors.ValidationErrorCollection

	for _, path := range []struct {
		field string
		value string
	}{
		{"preprocessor.source_path", config.Preprocessor.SourcePath},
		{"preprocessor.riot_typings_path", config.Preprocessor.RiotTypingsPath},
		{"preprocessor.tsconfig_path", config.Preprocessor.TSConfigPath},
		{"lint.config_path", config.Lint.ConfigPath},
	} {
		if path.value == "" {
			continue
		}
		if err := validation.ValidatePath(path.value); err != nil {
			vec.AddField(path.field, path.value, err.Error())
		}
	}
	for _, typings := range config.Preprocessor.AdditionalTypings {
		if err := validation.ValidatePath(typings); err != nil {
			vec.AddField("preprocessor.additional_typings", typings, err.Error())
		}
	}

	if !contains(lintEngines, config.Lint.Engine) {
		vec.AddField("lint.engine", config.Lint.Engine, "unsupported lint engine",
			fmt.Sprintf("use one of: %s", strings.Join(lintEngines, ", ")))
	}
	if config.Lint.Engine == "eslint" {
		if err := validation.ValidateArgument(config.Lint.Command); err != nil {
			vec.AddField("lint.command", config.Lint.Command, err.Error())
		}
	}
	if config.Preprocessor.TypeCheck {
		if err := validation.ValidateArgument(config.Preprocessor.TSCCommand); err != nil {
			vec.AddField("preprocessor.tsc_command", config.Preprocessor.TSCCommand, err.Error())
		}
	}

	for _, path := range config.Components.ScanPaths {
		if err := validateScanPath(path); err != nil {
			vec.AddField("components.scan_paths", path, err.Error())
		}
	}

	if config.Build.Jobs < 0 {
		vec.AddField("build.jobs", config.Build.Jobs, "must be positive")
	}
	if err := validation.ValidatePath(config.Build.OutDir); err != nil {
		vec.AddField("build.out_dir", config.Build.OutDir, err.Error())
	}

	if config.Watch.Debounce < 0 {
		vec.AddField("watch.debounce", config.Watch.Debounce, "must not be negative")
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		vec.AddField("log.format", config.Log.Format, "must be text or json")
	}

	if err := vec.ToError(); err != nil {
		return err
	}
	return nil
}

// validateScanPath validates a scan path for security
func validateScanPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.HasPrefix(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	return validation.ValidatePath(path)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
