package host

import (
	"path/filepath"
)

// Overlay supplies file contents that take precedence over the file system.
type Overlay interface {
	HasOverride(name string) bool
	ReadOverride(name string) (string, bool)
}

// EntryOverlay exposes a single in-memory source buffer under a canonical
// absolute path. Requests are canonicalized against the same root, so the
// bare entry name and its absolute form both hit the override.
type EntryOverlay struct {
	root string
	path string
	text string
}

// NewEntryOverlay creates an overlay serving text as root/name.
func NewEntryOverlay(root, name, text string) *EntryOverlay {
	return &EntryOverlay{
		root: root,
		path: canonical(root, name),
		text: text,
	}
}

// Path returns the canonical path of the virtual file.
func (o *EntryOverlay) Path() string {
	return o.path
}

// HasOverride reports whether name refers to the virtual file.
func (o *EntryOverlay) HasOverride(name string) bool {
	return canonical(o.root, name) == o.path
}

// ReadOverride returns the buffer when name refers to the virtual file.
func (o *EntryOverlay) ReadOverride(name string) (string, bool) {
	if !o.HasOverride(name) {
		return "", false
	}
	return o.text, true
}

func canonical(root, name string) string {
	p := filepath.FromSlash(name)
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return filepath.Clean(p)
}
