package preprocessor

import (
	"path/filepath"

	"github.com/conneroisu/riotts/internal/lint"
)

// Options configures the TypeScript preprocessor. Empty fields take their
// defaults from WithDefaults.
type Options struct {
	// ESLintConfigPath is the lint configuration file.
	ESLintConfigPath string `yaml:"eslint_config_path" mapstructure:"eslint_config_path"`
	// RiotTypingsPath declares the "*.riot" module; it is always the first
	// program root.
	RiotTypingsPath string `yaml:"riot_typings_path" mapstructure:"riot_typings_path"`
	// AdditionalTypings are further program roots, compiled in order.
	AdditionalTypings []string `yaml:"additional_typings" mapstructure:"additional_typings"`
	// SourcePath anchors the default typings and tsconfig paths.
	SourcePath string `yaml:"source_path" mapstructure:"source_path"`
	// TSConfigPath is the project compiler configuration.
	TSConfigPath string `yaml:"tsconfig_path" mapstructure:"tsconfig_path"`
	// DisableCustomResolver limits module resolution to the standard lookup.
	DisableCustomResolver bool `yaml:"disable_custom_resolver" mapstructure:"disable_custom_resolver"`
	// LogModuleResolution traces every resolution step.
	LogModuleResolution bool `yaml:"log_module_resolution" mapstructure:"log_module_resolution"`
	// LintEngine selects the lint engine, "eslint" or "builtin".
	LintEngine string `yaml:"lint_engine" mapstructure:"lint_engine"`
	// ESLintCommand is the executable used by the eslint engine.
	ESLintCommand string `yaml:"eslint_command" mapstructure:"eslint_command"`
	// TypeCheck runs tsc over every script that compiles.
	TypeCheck bool `yaml:"type_check" mapstructure:"type_check"`
	// TSCCommand is the executable used by the type check.
	TSCCommand string `yaml:"tsc_command" mapstructure:"tsc_command"`
}

// WithDefaults fills the empty fields relative to cwd and makes every
// configured path absolute against cwd. Supplied values always win; derived
// defaults are computed from the already-resolved SourcePath.
func (o Options) WithDefaults(cwd string) Options {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cwd, p)
	}

	o.ESLintConfigPath = abs(o.ESLintConfigPath)
	if o.ESLintConfigPath == "" {
		o.ESLintConfigPath = filepath.Join(cwd, ".eslintrc")
	}
	o.SourcePath = abs(o.SourcePath)
	if o.SourcePath == "" {
		o.SourcePath = filepath.Join(cwd, "src")
	}
	o.RiotTypingsPath = abs(o.RiotTypingsPath)
	if o.RiotTypingsPath == "" {
		o.RiotTypingsPath = filepath.Join(o.SourcePath, "client", "typings.d.ts")
	}
	typings := make([]string, 0, len(o.AdditionalTypings))
	for _, t := range o.AdditionalTypings {
		typings = append(typings, abs(t))
	}
	o.AdditionalTypings = typings
	o.TSConfigPath = abs(o.TSConfigPath)
	if o.TSConfigPath == "" {
		o.TSConfigPath = filepath.Join(o.SourcePath, "tsconfig.json")
	}
	if o.LintEngine == "" {
		o.LintEngine = lint.EngineESLint
	}
	if o.ESLintCommand == "" {
		o.ESLintCommand = "eslint"
	}
	if o.TSCCommand == "" {
		o.TSCCommand = "tsc"
	}
	return o
}

// Typings returns the program roots that precede the entry file.
func (o Options) Typings() []string {
	typings := make([]string, 0, len(o.AdditionalTypings)+1)
	typings = append(typings, o.RiotTypingsPath)
	return append(typings, o.AdditionalTypings...)
}
