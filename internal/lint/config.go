package lint

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/tailscale/hujson"

	"github.com/conneroisu/riotts/internal/errors"
)

// RuleSetting is one entry of the "rules" object: a severity and the
// rule-specific options that follow it in array form.
type RuleSetting struct {
	Severity int
	Options  []interface{}
}

// Config is a loaded lint configuration.
type Config struct {
	// Path is the absolute path of the file that was loaded, if any.
	Path  string
	Rules map[string]RuleSetting
}

// Enabled returns the names of rules whose severity is not off, sorted.
func (c *Config) Enabled() []string {
	names := make([]string, 0, len(c.Rules))
	for name, rule := range c.Rules {
		if rule.Severity != SeverityOff {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadConfig reads and parses the lint configuration at path.
func LoadConfig(fsys afero.Fs, path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeInvalidPath, "resolving lint config path")
	}

	data, err := afero.ReadFile(fsys, abs)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigLoad, "reading lint config").
			WithLocation(abs, 0, 0)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "parsing lint config").
			WithLocation(abs, 0, 0)
	}
	cfg.Path = abs
	return cfg, nil
}

// LoadEngineConfig loads the configuration engine needs. The builtin engine
// parses the file; eslint reads it itself, in any of its formats, so only its
// presence is checked.
func LoadEngineConfig(fsys afero.Fs, engine, path string) (*Config, error) {
	if engine != "" && !strings.EqualFold(engine, EngineESLint) {
		return LoadConfig(fsys, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeInvalidPath, "resolving lint config path")
	}
	if _, err := fsys.Stat(abs); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigLoad, "reading lint config").
			WithLocation(abs, 0, 0)
	}
	return &Config{Path: abs}, nil
}

// ParseConfig decodes an eslintrc-shaped document. Comments and trailing
// commas are accepted. Keys other than "rules" are ignored.
func ParseConfig(data []byte) (*Config, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Rules map[string]json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(standard, &doc); err != nil {
		return nil, err
	}

	cfg := &Config{Rules: make(map[string]RuleSetting, len(doc.Rules))}
	for name, raw := range doc.Rules {
		setting, err := parseRuleSetting(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		cfg.Rules[name] = setting
	}
	return cfg, nil
}

func parseRuleSetting(raw json.RawMessage) (RuleSetting, error) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return RuleSetting{}, err
	}

	if list, ok := value.([]interface{}); ok {
		if len(list) == 0 {
			return RuleSetting{}, fmt.Errorf("empty rule setting")
		}
		severity, err := parseSeverity(list[0])
		if err != nil {
			return RuleSetting{}, err
		}
		return RuleSetting{Severity: severity, Options: list[1:]}, nil
	}

	severity, err := parseSeverity(value)
	if err != nil {
		return RuleSetting{}, err
	}
	return RuleSetting{Severity: severity}, nil
}

func parseSeverity(v interface{}) (int, error) {
	switch s := v.(type) {
	case float64:
		if s == SeverityOff || s == SeverityWarn || s == SeverityError {
			return int(s), nil
		}
	case string:
		switch strings.ToLower(s) {
		case "off":
			return SeverityOff, nil
		case "warn":
			return SeverityWarn, nil
		case "error":
			return SeverityError, nil
		}
	}
	return 0, fmt.Errorf("invalid severity %v", v)
}
