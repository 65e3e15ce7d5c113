// Package resolver resolves import specifiers found in component scripts.
//
// Resolution happens in two tiers. A Lookup implementing the compiler's
// standard algorithm is consulted first; when it misses, Resolver tries a
// fixed, ordered list of candidate extensions under a single search root so
// that imports of ambient declarations, sibling TypeScript files and other
// component tags (".riot") resolve even though the standard algorithm does
// not know about them.
package resolver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/logging"
)

// Candidate extensions tried by the fallback search, in precedence order:
// ambient declarations win over same-named implementation files, which win
// over embeddable component templates.
const (
	ExtensionDTS  = ".d.ts"
	ExtensionTS   = ".ts"
	ExtensionRiot = ".riot"
)

// FallbackExtensions is the fixed candidate order used by Resolver.
var FallbackExtensions = []string{ExtensionDTS, ExtensionTS, ExtensionRiot}

// ResolvedModule is the outcome of a successful resolution.
type ResolvedModule struct {
	ResolvedFileName        string
	Extension               string
	IsExternalLibraryImport bool
}

// Lookup is a standard module resolution strategy.
type Lookup interface {
	Lookup(moduleName, containingFile string) (ResolvedModule, bool)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(moduleName, containingFile string) (ResolvedModule, bool)

// Lookup calls f.
func (f LookupFunc) Lookup(moduleName, containingFile string) (ResolvedModule, bool) {
	return f(moduleName, containingFile)
}

// Resolver layers the fallback candidate search on top of a standard Lookup.
type Resolver struct {
	fs       afero.Fs
	standard Lookup
	logger   logging.Logger
	trace    bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTrace logs every resolution step through logger.
func WithTrace(logger logging.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger.WithComponent("resolver")
			r.trace = true
		}
	}
}

// New creates a Resolver reading the file system through fsys.
// A nil standard lookup means only the fallback search is used.
func New(fsys afero.Fs, standard Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		fs:       fsys,
		standard: standard,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Standard returns the lookup consulted before the fallback search.
func (r *Resolver) Standard() Lookup {
	return r.standard
}

// Resolve resolves moduleName imported from containingFile. The standard
// lookup is always tried first; only on a miss is the fallback search run
// against searchRoot. The boolean is false when neither tier finds a file.
func (r *Resolver) Resolve(moduleName, containingFile, searchRoot string) (ResolvedModule, bool) {
	if r.standard != nil {
		if m, ok := r.standard.Lookup(moduleName, containingFile); ok {
			r.tracef("resolved by standard lookup", "module", moduleName, "file", m.ResolvedFileName)
			return m, true
		}
	}

	m, ok := r.Fallback(moduleName, searchRoot)
	if !ok {
		r.tracef("module not resolved", "module", moduleName, "from", containingFile, "root", searchRoot)
	}
	return m, ok
}

// Fallback tries root/dir(moduleName)/base+ext for each candidate extension
// in FallbackExtensions order, stripping ext from the module's base name when
// it already carries it. The first existing regular file wins.
func (r *Resolver) Fallback(moduleName, searchRoot string) (ResolvedModule, bool) {
	name := filepath.FromSlash(moduleName)
	dir := filepath.Join(searchRoot, filepath.Dir(name))
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	for _, ext := range FallbackExtensions {
		candidate := filepath.Join(dir, trimExt(filepath.Base(name), ext)+ext)
		r.tracef("trying fallback candidate", "module", moduleName, "candidate", candidate)
		if isFile(r.fs, candidate) {
			r.tracef("resolved by fallback", "module", moduleName, "file", candidate, "extension", ext)
			return ResolvedModule{
				ResolvedFileName:        candidate,
				Extension:               ext,
				IsExternalLibraryImport: false,
			}, true
		}
	}
	return ResolvedModule{}, false
}

func (r *Resolver) tracef(msg string, fields ...interface{}) {
	if r.trace {
		r.logger.Info(context.Background(), msg, fields...)
	}
}

// trimExt mirrors path.basename(p, ext): the suffix is removed only when the
// base is longer than it.
func trimExt(base, ext string) string {
	if base != ext && strings.HasSuffix(base, ext) {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

func isFile(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// ExtensionOf reports the resolution extension of a path, treating ".d.ts"
// as a single extension.
func ExtensionOf(path string) string {
	if strings.HasSuffix(path, ExtensionDTS) {
		return ExtensionDTS
	}
	return filepath.Ext(path)
}
