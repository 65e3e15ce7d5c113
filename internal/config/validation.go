package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ValidationError represents a configuration validation issue with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails checks that the files the configuration points
// at exist, relative to cwd. Missing inputs the preprocessor cannot start
// without are errors; missing scan paths are warnings.
func ValidateConfigWithDetails(fsys afero.Fs, config *Config, cwd string) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cwd, p)
	}

	source := config.Preprocessor.SourcePath
	if source == "" {
		source = filepath.Join(cwd, "src")
	}
	source = abs(source)

	tsconfig := config.Preprocessor.TSConfigPath
	if tsconfig == "" {
		tsconfig = filepath.Join(source, "tsconfig.json")
	}
	if !pathExists(fsys, abs(tsconfig)) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "preprocessor.tsconfig_path",
			Value:       tsconfig,
			Message:     fmt.Sprintf("tsconfig not found at %s", abs(tsconfig)),
			Suggestions: []string{"create a tsconfig.json in the source path", "set preprocessor.tsconfig_path"},
		})
	}

	lintConfig := config.Lint.ConfigPath
	if lintConfig == "" {
		lintConfig = filepath.Join(cwd, ".eslintrc")
	}
	if !pathExists(fsys, abs(lintConfig)) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "lint.config_path",
			Value:       lintConfig,
			Message:     fmt.Sprintf("lint config not found at %s", abs(lintConfig)),
			Suggestions: []string{`create .eslintrc with {"rules": {}}`, "set lint.config_path"},
		})
	}

	typings := config.Preprocessor.RiotTypingsPath
	if typings == "" {
		typings = filepath.Join(source, "client", "typings.d.ts")
	}
	for _, t := range append([]string{typings}, config.Preprocessor.AdditionalTypings...) {
		if !pathExists(fsys, abs(t)) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "preprocessor.riot_typings_path",
				Value:       t,
				Message:     fmt.Sprintf("typings file not found at %s; every compile will report it", abs(t)),
				Suggestions: []string{`declare module "*.riot" in a typings.d.ts`},
			})
		}
	}

	for _, p := range config.Components.ScanPaths {
		if !pathExists(fsys, abs(p)) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "components.scan_paths",
				Value:   p,
				Message: fmt.Sprintf("scan path %s does not exist", p),
			})
		}
	}

	result.Valid = !result.HasErrors()
	return result
}

func pathExists(fsys afero.Fs, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}
