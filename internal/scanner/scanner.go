// Package scanner discovers Riot component files.
//
// The scanner walks the configured scan paths for .riot files, skipping
// anything matched by an exclude pattern, and records a CRC32 hash and
// modification time per file so that callers can tell which components
// changed since the previous scan.
package scanner

import (
	"fmt"
	"hash/crc32"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/validation"
)

// Extension is the component file extension.
const Extension = ".riot"

// ComponentFile describes a discovered component.
type ComponentFile struct {
	// Path is the absolute path of the component.
	Path    string
	Hash    string
	Size    int64
	ModTime time.Time
}

// ComponentScanner finds component files below a set of roots.
type ComponentScanner struct {
	fs       afero.Fs
	excludes []string
	// hashes holds the hash seen for each path by the last scan
	hashes map[string]string
	mu     sync.RWMutex
}

// NewComponentScanner creates a scanner reading through fsys. Exclude
// patterns are matched with filepath.Match against every path element, so
// "node_modules" skips the directory and "*.bak.riot" skips files.
func NewComponentScanner(fsys afero.Fs, excludes []string) *ComponentScanner {
	return &ComponentScanner{
		fs:       fsys,
		excludes: excludes,
		hashes:   make(map[string]string),
	}
}

// Excluded reports whether path matches an exclude pattern.
func (s *ComponentScanner) Excluded(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" {
			continue
		}
		for _, pattern := range s.excludes {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

// ScanDirectory returns the components below dir, sorted by path.
func (s *ComponentScanner) ScanDirectory(dir string) ([]ComponentFile, error) {
	if err := validation.ValidatePath(dir); err != nil {
		return nil, fmt.Errorf("invalid directory path: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var files []ComponentFile
	err = afero.Walk(s.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, _ := filepath.Rel(root, path)
		if rel != "." && s.Excluded(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !strings.HasSuffix(path, Extension) {
			return nil
		}

		file, err := s.ScanFile(path)
		if err != nil {
			return err
		}
		files = append(files, *file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ScanDirectories scans every directory and merges the results. A path
// reached from two roots is reported once.
func (s *ComponentScanner) ScanDirectories(dirs []string) ([]ComponentFile, error) {
	seen := make(map[string]bool)
	var all []ComponentFile
	for _, dir := range dirs {
		files, err := s.ScanDirectory(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f.Path] {
				seen[f.Path] = true
				all = append(all, f)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all, nil
}

// ScanFile hashes a single component file and records it.
func (s *ComponentScanner) ScanFile(path string) (*ComponentFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("getting file info for %s: %w", abs, err)
	}
	content, err := afero.ReadFile(s.fs, abs)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", abs, err)
	}

	file := &ComponentFile{
		Path:    abs,
		Hash:    fmt.Sprintf("%x", crc32.ChecksumIEEE(content)),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	s.mu.Lock()
	s.hashes[abs] = file.Hash
	s.mu.Unlock()
	return file, nil
}

// Changed rescans path and reports whether its content differs from the
// previous scan. Unknown files count as changed.
func (s *ComponentScanner) Changed(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	previous, known := s.hashes[abs]
	s.mu.RUnlock()

	file, err := s.ScanFile(abs)
	if err != nil {
		return false, err
	}
	return !known || file.Hash != previous, nil
}

// Forget drops the recorded hash for a removed file.
func (s *ComponentScanner) Forget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.hashes, abs)
	s.mu.Unlock()
}
