package resolver

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/tsconfig"
)

// StandardLookup implements the compiler's own resolution algorithms over an
// afero file system: "node" (relative probing, index files, baseUrl,
// node_modules with package.json typings) and "classic" (walk up the
// directory tree probing TypeScript extensions).
type StandardLookup struct {
	fs         afero.Fs
	resolution string
	baseURL    string
	extensions []string
}

// NewStandardLookup builds the lookup selected by the compiler options.
func NewStandardLookup(fsys afero.Fs, opts tsconfig.CompilerOptions) *StandardLookup {
	exts := []string{".ts", ".tsx", ".d.ts"}
	if opts.AllowJS {
		exts = append(exts, ".js", ".jsx")
	}
	return &StandardLookup{
		fs:         fsys,
		resolution: opts.Resolution(),
		baseURL:    opts.BaseURL,
		extensions: exts,
	}
}

// Lookup resolves moduleName as imported from containingFile.
func (s *StandardLookup) Lookup(moduleName, containingFile string) (ResolvedModule, bool) {
	if s.resolution == "classic" {
		return s.classic(moduleName, containingFile)
	}
	return s.node(moduleName, containingFile)
}

func (s *StandardLookup) node(moduleName, containingFile string) (ResolvedModule, bool) {
	name := filepath.FromSlash(moduleName)
	fromDir := filepath.Dir(containingFile)

	if isRelative(moduleName) || filepath.IsAbs(name) {
		candidate := name
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(fromDir, name)
		}
		if m, ok := s.loadAsFile(candidate); ok {
			return m, true
		}
		return s.loadAsDirectory(candidate)
	}

	if s.baseURL != "" {
		candidate := filepath.Join(s.baseURL, name)
		if m, ok := s.loadAsFile(candidate); ok {
			return m, true
		}
		if m, ok := s.loadAsDirectory(candidate); ok {
			return m, true
		}
	}

	for dir := fromDir; ; {
		for _, nm := range []string{
			filepath.Join(dir, "node_modules", name),
			filepath.Join(dir, "node_modules", "@types", typesPackageName(moduleName)),
		} {
			if m, ok := s.loadAsFile(nm); ok {
				m.IsExternalLibraryImport = true
				return m, true
			}
			if m, ok := s.loadAsDirectory(nm); ok {
				m.IsExternalLibraryImport = true
				return m, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ResolvedModule{}, false
}

func (s *StandardLookup) classic(moduleName, containingFile string) (ResolvedModule, bool) {
	name := filepath.FromSlash(moduleName)
	fromDir := filepath.Dir(containingFile)

	if isRelative(moduleName) || filepath.IsAbs(name) {
		candidate := name
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(fromDir, name)
		}
		return s.loadAsFile(candidate)
	}

	for dir := fromDir; ; {
		if m, ok := s.loadAsFile(filepath.Join(dir, name)); ok {
			return m, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ResolvedModule{}, false
}

// loadAsFile tries the exact path when it already carries a known extension,
// then path+ext for each configured extension. A ".js"/".jsx" specifier is
// remapped to its TypeScript source.
func (s *StandardLookup) loadAsFile(path string) (ResolvedModule, bool) {
	ext := ExtensionOf(path)
	if s.known(ext) && isFile(s.fs, path) {
		return ResolvedModule{ResolvedFileName: path, Extension: ext}, true
	}

	stem := path
	if ext == ".js" || ext == ".jsx" {
		stem = strings.TrimSuffix(path, ext)
	}

	for _, candidateExt := range s.extensions {
		candidate := stem + candidateExt
		if isFile(s.fs, candidate) {
			return ResolvedModule{ResolvedFileName: candidate, Extension: candidateExt}, true
		}
	}
	return ResolvedModule{}, false
}

type packageJSON struct {
	Types   string `json:"types"`
	Typings string `json:"typings"`
	Main    string `json:"main"`
}

func (s *StandardLookup) loadAsDirectory(dir string) (ResolvedModule, bool) {
	if data, err := afero.ReadFile(s.fs, filepath.Join(dir, "package.json")); err == nil {
		var pkg packageJSON
		if json.Unmarshal(data, &pkg) == nil {
			for _, entry := range []string{pkg.Types, pkg.Typings, pkg.Main} {
				if entry == "" {
					continue
				}
				if m, ok := s.loadAsFile(filepath.Join(dir, filepath.FromSlash(entry))); ok {
					return m, true
				}
			}
		}
	}
	return s.loadAsFile(filepath.Join(dir, "index"))
}

func (s *StandardLookup) known(ext string) bool {
	for _, e := range s.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func isRelative(moduleName string) bool {
	return moduleName == "." || moduleName == ".." ||
		strings.HasPrefix(moduleName, "./") || strings.HasPrefix(moduleName, "../")
}

// typesPackageName maps "@scope/pkg" to "scope__pkg" as DefinitelyTyped does.
func typesPackageName(moduleName string) string {
	if strings.HasPrefix(moduleName, "@") {
		if scope, pkg, ok := strings.Cut(moduleName[1:], "/"); ok {
			return filepath.FromSlash(scope + "__" + pkg)
		}
	}
	return filepath.FromSlash(moduleName)
}
