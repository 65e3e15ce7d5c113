// Package host implements the compilation host handed to the compiler for a
// single component script.
//
// The host serves exactly one virtual source file, the script buffer, from
// memory and reads every other file through an afero file system. It also
// receives the compiler's emitted artifacts and keeps only the compiled code
// and source map that belong to the entry file, and it answers module
// resolution either through the default lookup alone or through the fallback
// resolver.
package host

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/resolver"
)

const (
	// CodeSuffix is appended to the entry stem for compiled output.
	CodeSuffix = ".js"
	// MapSuffix is appended to the entry stem for the source map.
	MapSuffix = ".js.map"
)

// Artifact is the classification of an emitted file.
type Artifact int

const (
	ArtifactIgnored Artifact = iota
	ArtifactCode
	ArtifactMap
)

// Config describes one compilation's host.
type Config struct {
	// EntryFileName is the name the compiler requests for the virtual source.
	EntryFileName string
	// SourceText is the in-memory buffer served for the entry.
	SourceText string
	// SearchRoot anchors the entry and the fallback search.
	SearchRoot string
	// DisableCustomResolver limits resolution to the default lookup.
	DisableCustomResolver bool
}

// Host is a per-invocation compilation host.
type Host struct {
	fs       afero.Fs
	overlay  Overlay
	entry    string
	stem     string
	root     string
	resolver *resolver.Resolver
	custom   bool

	code      string
	hasCode   bool
	sourceMap string
	hasMap    bool
}

// New creates a host for cfg. The resolver supplies both the default lookup
// (Resolver.Standard) and the fallback search.
func New(fsys afero.Fs, r *resolver.Resolver, cfg Config) *Host {
	overlay := NewEntryOverlay(cfg.SearchRoot, cfg.EntryFileName, cfg.SourceText)
	base := filepath.Base(cfg.EntryFileName)
	return &Host{
		fs:       fsys,
		overlay:  overlay,
		entry:    overlay.Path(),
		stem:     strings.TrimSuffix(base, resolver.ExtensionOf(base)),
		root:     cfg.SearchRoot,
		resolver: r,
		custom:   !cfg.DisableCustomResolver,
	}
}

// EntryPath returns the canonical path of the virtual entry file.
func (h *Host) EntryPath() string {
	return h.entry
}

// SearchRoot returns the directory used for fallback resolution.
func (h *Host) SearchRoot() string {
	return h.root
}

// IsEntry reports whether name refers to the virtual entry file.
func (h *Host) IsEntry(name string) bool {
	return h.overlay.HasOverride(name)
}

// SourceText returns the text for name: the buffer for the entry, otherwise
// the file system contents. The boolean is false when the file is absent.
func (h *Host) SourceText(name string) (string, bool) {
	if text, ok := h.overlay.ReadOverride(name); ok {
		return text, true
	}
	return h.ReadFile(name)
}

// ReadFile reads a file from the file system, never from the overlay.
func (h *Host) ReadFile(name string) (string, bool) {
	data, err := afero.ReadFile(h.fs, name)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// FileExists reports whether name is the entry or an existing regular file.
func (h *Host) FileExists(name string) bool {
	if h.overlay.HasOverride(name) {
		return true
	}
	info, err := h.fs.Stat(name)
	return err == nil && !info.IsDir()
}

// CurrentDirectory returns the process working directory.
func (h *Host) CurrentDirectory() string {
	wd, err := os.Getwd()
	if err != nil {
		return h.root
	}
	return wd
}

// UseCaseSensitiveFileNames reports the platform's file name semantics.
func (h *Host) UseCaseSensitiveFileNames() bool {
	return runtime.GOOS != "windows" && runtime.GOOS != "darwin"
}

// NewLine returns the newline used when formatting output.
func (h *Host) NewLine() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Classify decides what an emitted file is, looking only at its base name.
func (h *Host) Classify(name string) Artifact {
	base := filepath.Base(name)
	switch {
	case strings.HasSuffix(base, MapSuffix) && strings.TrimSuffix(base, MapSuffix) == h.stem:
		return ArtifactMap
	case strings.HasSuffix(base, CodeSuffix) && strings.TrimSuffix(base, CodeSuffix) == h.stem:
		return ArtifactCode
	default:
		return ArtifactIgnored
	}
}

// WriteFile records an emitted artifact. Compiled code and the source map of
// the entry are retained; the first of each wins and everything else is
// dropped.
func (h *Host) WriteFile(name, text string) Artifact {
	kind := h.Classify(name)
	switch kind {
	case ArtifactCode:
		if !h.hasCode {
			h.code, h.hasCode = text, true
		}
	case ArtifactMap:
		if !h.hasMap {
			h.sourceMap, h.hasMap = text, true
		}
	}
	return kind
}

// Output returns the captured compiled code and source map.
func (h *Host) Output() (code string, sourceMap string, hasCode bool, hasMap bool) {
	return h.code, h.sourceMap, h.hasCode, h.hasMap
}

// ResolveModule resolves an import from containingFile. With the custom
// resolver disabled only the default lookup is consulted.
func (h *Host) ResolveModule(moduleName, containingFile string) (resolver.ResolvedModule, bool) {
	if h.resolver == nil {
		return resolver.ResolvedModule{}, false
	}
	if !h.custom {
		standard := h.resolver.Standard()
		if standard == nil {
			return resolver.ResolvedModule{}, false
		}
		return standard.Lookup(moduleName, containingFile)
	}
	return h.resolver.Resolve(moduleName, containingFile, h.root)
}
