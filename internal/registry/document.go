package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotTracked reports a lookup or refresh for a key the registry does not
// hold.
var ErrNotTracked = errors.New("document not tracked")

// RenderFunc converts raw markdown source to the HTML artifact stored for a
// document. It must be total: failures are represented in the returned
// string, never by panicking.
type RenderFunc func(src []byte) string

// TrackedDocument holds the current state of one served document. ModTime
// and HTML always describe the same read of the file: refreshes replace
// them together under the registry lock.
type TrackedDocument struct {
	Path    string // absolute canonical path on disk
	ModTime time.Time
	HTML    string
}

// DocumentRegistry is the authoritative mapping from canonical document
// keys to their rendered state. Keys are root-relative, slash-separated
// paths. In dynamic mode new documents may be admitted after construction;
// in fixed mode the key set is closed. Keys are never removed, even when
// the underlying file disappears: editors routinely rename a file away and
// recreate it moments later, and dropping the entry would surface that
// race to viewers as a 404.
type DocumentRegistry struct {
	documents map[string]*TrackedDocument
	mutex     sync.RWMutex
	root      string
	dynamic   bool
	render    RenderFunc
}

// New builds a registry rooted at root and loads every initial path. The
// root is canonicalized once and fixed for the life of the registry. Any
// unreadable initial path fails construction; there is no partial result.
func New(root string, initialPaths []string, dynamic bool, render RenderFunc) (*DocumentRegistry, error) {
	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}

	r := &DocumentRegistry{
		documents: make(map[string]*TrackedDocument),
		root:      canonicalRoot,
		dynamic:   dynamic,
		render:    render,
	}

	for _, path := range initialPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		doc, err := r.load(abs)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		r.documents[r.keyFor(abs)] = doc
	}

	return r, nil
}

// Root returns the canonicalized root directory.
func (r *DocumentRegistry) Root() string {
	return r.root
}

// Dynamic reports whether new documents may be admitted after construction.
func (r *DocumentRegistry) Dynamic() bool {
	return r.dynamic
}

// Refresh re-checks the on-disk file behind key and re-renders when its
// modification time is strictly newer than the tracked one. An unchanged
// or older file is a successful no-op, which makes Refresh safe to call
// speculatively before every read. Stat or read failures leave the stale
// artifact in place and are reported to the caller.
func (r *DocumentRegistry) Refresh(key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	doc, exists := r.documents[key]
	if !exists {
		return fmt.Errorf("%q: %w", key, ErrNotTracked)
	}

	info, err := os.Stat(doc.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", doc.Path, err)
	}
	if !info.ModTime().After(doc.ModTime) {
		return nil
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", doc.Path, err)
	}

	doc.ModTime = info.ModTime()
	doc.HTML = r.render(data)
	return nil
}

// Admit tracks a new document in dynamic mode. Already-tracked paths are a
// no-op, so duplicate create notifications are harmless. In fixed mode the
// document set is closed and Admit returns without touching the registry.
func (r *DocumentRegistry) Admit(absPath string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.dynamic {
		return nil
	}

	key := r.keyFor(absPath)
	if _, exists := r.documents[key]; exists {
		return nil
	}

	doc, err := r.load(absPath)
	if err != nil {
		return fmt.Errorf("admitting %s: %w", absPath, err)
	}
	r.documents[key] = doc
	return nil
}

// Get returns the current artifact for key.
func (r *DocumentRegistry) Get(key string) (string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	doc, exists := r.documents[key]
	if !exists {
		return "", false
	}
	return doc.HTML, true
}

// Document returns a copy of the tracked state for key. The copy keeps
// callers outside the registry lock boundary.
func (r *DocumentRegistry) Document(key string) (TrackedDocument, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	doc, exists := r.documents[key]
	if !exists {
		return TrackedDocument{}, false
	}
	return *doc, true
}

// Tracked reports whether key is currently tracked.
func (r *DocumentRegistry) Tracked(key string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.documents[key]
	return exists
}

// Keys returns all tracked keys in lexicographic order. The ordering is a
// user-visible contract: navigation listings and first-document selection
// both derive from it.
func (r *DocumentRegistry) Keys() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	keys := make([]string, 0, len(r.documents))
	for key := range r.documents {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of tracked documents.
func (r *DocumentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.documents)
}

// KeyFor derives the canonical key for an absolute path using the same
// rules applied at construction and admission time, so one physical file
// always maps to one key.
func (r *DocumentRegistry) KeyFor(absPath string) string {
	return r.keyFor(absPath)
}

// keyFor canonicalizes absPath and strips the root prefix. When the path
// cannot be canonicalized (the file may already be gone) the raw path is
// used so the caller still gets a deterministic key.
func (r *DocumentRegistry) keyFor(absPath string) string {
	canonical, err := canonicalize(absPath)
	if err != nil {
		canonical = absPath
	}

	prefix := r.root + string(filepath.Separator)
	if strings.HasPrefix(canonical, prefix) {
		return filepath.ToSlash(canonical[len(prefix):])
	}
	return filepath.ToSlash(canonical)
}

// load reads and renders the file at absPath.
func (r *DocumentRegistry) load(absPath string) (*TrackedDocument, error) {
	canonical, err := canonicalize(absPath)
	if err != nil {
		canonical = absPath
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return &TrackedDocument{
		Path:    canonical,
		ModTime: info.ModTime(),
		HTML:    r.render(data),
	}, nil
}

// canonicalize resolves path to an absolute, symlink-free form.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
