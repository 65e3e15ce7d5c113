// Package component hosts Riot component files: it finds the script blocks
// written in a preprocessed language, dispatches them to the preprocessor
// registered for that language, and splices the compiled output back.
package component

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Meta describes the component a script block belongs to.
type Meta struct {
	// File is the absolute path of the component file.
	File string
	// Line is the 1-based line of the first script line in File.
	Line int
}

// Output is what a preprocessor returns for one script block.
type Output struct {
	Code string
	Map  string
}

// Handler compiles one script block.
type Handler func(ctx context.Context, source string, meta Meta) (*Output, error)

type key struct {
	languageTag string
	ext         string
}

// Registry maps a (language tag, extension) pair to its preprocessor.
type Registry struct {
	handlers map[key]Handler
	mutex    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[key]Handler)}
}

// Register installs handler for languageTag and ext, replacing any
// earlier registration for the same pair.
func (r *Registry) Register(languageTag, ext string, handler Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.handlers[key{strings.ToLower(languageTag), strings.ToLower(ext)}] = handler
}

// Lookup returns the handler registered for languageTag and ext.
func (r *Registry) Lookup(languageTag, ext string) (Handler, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	h, ok := r.handlers[key{strings.ToLower(languageTag), strings.ToLower(ext)}]
	return h, ok
}

// Registered lists the registered pairs as "tag/ext", sorted.
func (r *Registry) Registered() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k.languageTag+"/"+k.ext)
	}
	sort.Strings(out)
	return out
}
