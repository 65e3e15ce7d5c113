// Package tsconfig loads the project compiler configuration (tsconfig.json).
//
// The file is read once at start-up and the resulting CompilerOptions are
// shared read-only by every compilation. Comments and trailing commas are
// accepted, "extends" chains are followed, and relative paths in baseUrl are
// resolved against the configured source root.
package tsconfig

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tailscale/hujson"
)

// maxExtendsDepth bounds "extends" chains.
const maxExtendsDepth = 8

// CompilerOptions is the subset of tsconfig compilerOptions riotts reads itself.
// Everything else is forwarded verbatim through Config.Raw.
type CompilerOptions struct {
	Target                 string `json:"target"`
	Module                 string `json:"module"`
	ModuleResolution       string `json:"moduleResolution"`
	Strict                 bool   `json:"strict"`
	SourceMap              bool   `json:"sourceMap"`
	BaseURL                string `json:"baseUrl"`
	JSX                    string `json:"jsx"`
	JSXFactory             string `json:"jsxFactory"`
	ExperimentalDecorators bool   `json:"experimentalDecorators"`
	ForceConsistentCasing  bool   `json:"forceConsistentCasingInFileNames"`
	AllowJS                bool   `json:"allowJs"`
}

// Config is a loaded project configuration.
type Config struct {
	// Path is the absolute path of the file that was loaded.
	Path string
	// CompilerOptions holds the decoded options after "extends" merging.
	CompilerOptions CompilerOptions
	// Raw is the merged compilerOptions object as JSON.
	Raw map[string]interface{}
}

type document struct {
	Extends         string                 `json:"extends"`
	CompilerOptions map[string]interface{} `json:"compilerOptions"`
}

// Load reads path from fsys and parses it the way a project config is parsed:
// inherited options first, the file's own options on top. basePath anchors a
// relative baseUrl; when empty the config file's directory is used.
func Load(fsys afero.Fs, path, basePath string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	raw, err := loadChain(fsys, abs, 0, map[string]bool{})
	if err != nil {
		return nil, err
	}

	var opts CompilerOptions
	if err := remarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decoding compilerOptions in %s: %w", abs, err)
	}

	if basePath == "" {
		basePath = filepath.Dir(abs)
	}
	if opts.BaseURL != "" && !filepath.IsAbs(opts.BaseURL) {
		opts.BaseURL = filepath.Join(basePath, opts.BaseURL)
		raw["baseUrl"] = opts.BaseURL
	}

	return &Config{
		Path:            abs,
		CompilerOptions: opts,
		Raw:             raw,
	}, nil
}

// Parse decodes a single config document without following "extends".
func Parse(data []byte) (*Config, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	if doc.CompilerOptions == nil {
		doc.CompilerOptions = map[string]interface{}{}
	}

	var opts CompilerOptions
	if err := remarshal(doc.CompilerOptions, &opts); err != nil {
		return nil, fmt.Errorf("decoding compilerOptions: %w", err)
	}
	return &Config{CompilerOptions: opts, Raw: doc.CompilerOptions}, nil
}

func loadChain(fsys afero.Fs, path string, depth int, seen map[string]bool) (map[string]interface{}, error) {
	if depth > maxExtendsDepth {
		return nil, fmt.Errorf("tsconfig extends chain deeper than %d at %s", maxExtendsDepth, path)
	}
	if seen[path] {
		return nil, fmt.Errorf("tsconfig extends cycle at %s", path)
	}
	seen[path] = true

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	merged := map[string]interface{}{}
	if doc.Extends != "" {
		parent, err := resolveExtends(fsys, doc.Extends, filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		base, err := loadChain(fsys, parent, depth+1, seen)
		if err != nil {
			return nil, err
		}
		for k, v := range base {
			merged[k] = v
		}
	}
	for k, v := range doc.CompilerOptions {
		merged[k] = v
	}
	return merged, nil
}

// resolveExtends locates the file an "extends" value names. Paths are taken
// relative to dir; anything else is a package specifier looked up in the
// node_modules directories from dir upwards.
func resolveExtends(fsys afero.Fs, extends, dir string) (string, error) {
	if filepath.IsAbs(extends) || strings.HasPrefix(extends, "./") || strings.HasPrefix(extends, "../") ||
		extends == "." || extends == ".." {
		parent := extends
		if !filepath.IsAbs(parent) {
			parent = filepath.Join(dir, parent)
		}
		if !strings.HasSuffix(parent, ".json") {
			parent += ".json"
		}
		return parent, nil
	}

	for d := dir; ; d = filepath.Dir(d) {
		pkg := filepath.Join(d, "node_modules", filepath.FromSlash(extends))
		for _, candidate := range []string{pkg, pkg + ".json", filepath.Join(pkg, "tsconfig.json")} {
			if info, err := fsys.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		if filepath.Dir(d) == d {
			break
		}
	}
	return "", fmt.Errorf("cannot find tsconfig %q extended from %s", extends, dir)
}

func decode(data []byte) (*document, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(standard, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func remarshal(in map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Resolution returns the effective module resolution strategy, "node" or
// "classic", applying the compiler's default when none is configured.
func (o CompilerOptions) Resolution() string {
	switch strings.ToLower(o.ModuleResolution) {
	case "classic":
		return "classic"
	case "node", "node10", "node16", "nodenext", "bundler":
		return "node"
	}

	switch strings.ToLower(o.Module) {
	case "amd", "umd", "system", "es6", "es2015", "es2020", "es2022", "esnext":
		return "classic"
	default:
		return "node"
	}
}

// TsconfigRaw renders the merged options as a tsconfig document suitable
// for handing to the compiler. When keys are given only those options are
// kept.
func (c *Config) TsconfigRaw(keys ...string) string {
	if c == nil {
		return ""
	}

	opts := c.Raw
	if len(keys) > 0 {
		opts = make(map[string]interface{}, len(keys))
		for _, k := range keys {
			if v, ok := c.Raw[k]; ok {
				opts[k] = v
			}
		}
	}

	data, err := json.Marshal(map[string]interface{}{"compilerOptions": opts})
	if err != nil {
		return ""
	}
	return string(data)
}
