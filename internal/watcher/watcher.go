// Package watcher turns raw filesystem notifications into the semantic
// operations the document registry understands and applies them.
//
// It has three layers: FileWatcher wraps fsnotify and normalizes its
// platform-specific events into a small event shape, Classify maps one
// normalized event to at most one semantic operation, and Pump is the
// single consumer loop that applies those operations to the registry and
// publishes reload notifications. Store mutations happen only on the pump
// goroutine, never in watch-callback context.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/mdserve/internal/logging"
)

// EventKind describes a normalized filesystem notification.
type EventKind int

const (
	// EventCreate is a new file or directory appearing.
	EventCreate EventKind = iota
	// EventWrite is a data change to an existing file.
	EventWrite
	// EventRemove is a deletion.
	EventRemove
	// EventChmod is a metadata-only change.
	EventChmod
	// EventRenameBoth carries both halves of a rename in one event.
	EventRenameBoth
	// EventRenameFrom is the origin half of a split rename.
	EventRenameFrom
	// EventRenameTo is the destination half of a split rename.
	EventRenameTo
	// EventRename is a single-sided rename that could be either half.
	// fsnotify reports renames of watched files this way.
	EventRename
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventChmod:
		return "chmod"
	case EventRenameBoth:
		return "rename"
	case EventRenameFrom:
		return "rename-from"
	case EventRenameTo:
		return "rename-to"
	case EventRename:
		return "rename-any"
	default:
		return "unknown"
	}
}

// Event is one normalized filesystem notification. Path is the primary
// path; NewPath is set only for EventRenameBoth.
type Event struct {
	Kind    EventKind
	Path    string
	NewPath string
}

// eventBuffer bounds the hand-off queue between the OS notification
// goroutine and the pump. Bursts beyond it are dropped with a warning
// rather than blocking the notification side.
const eventBuffer = 100

// FileWatcher watches a directory tree recursively and emits normalized
// events.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	events    chan Event
	log       logging.Logger
	closeOnce sync.Once
}

// NewFileWatcher creates a new file system watcher
func NewFileWatcher(log logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &FileWatcher{
		watcher: w,
		events:  make(chan Event, eventBuffer),
		log:     log.WithComponent("watcher"),
	}, nil
}

// AddRecursive watches root and every directory below it.
func (f *FileWatcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := f.watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

// Events returns the normalized event stream. The channel closes when the
// watcher stops.
func (f *FileWatcher) Events() <-chan Event {
	return f.events
}

// Start begins forwarding events until ctx is cancelled or the watcher is
// closed.
func (f *FileWatcher) Start(ctx context.Context) {
	go f.watchLoop(ctx)
}

// Close stops the underlying watcher, which in turn ends the event stream.
func (f *FileWatcher) Close() error {
	var err error
	f.closeOnce.Do(func() {
		err = f.watcher.Close()
	})
	return err
}

func (f *FileWatcher) watchLoop(ctx context.Context) {
	defer close(f.events)

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			f.handleRawEvent(ctx, raw)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn(ctx, err, "Watch error")
		}
	}
}

// handleRawEvent normalizes one fsnotify event and hands it to the pump
// queue without blocking.
func (f *FileWatcher) handleRawEvent(ctx context.Context, raw fsnotify.Event) {
	ev, ok := normalizeEvent(raw)
	if !ok {
		return
	}

	// fsnotify does not watch new subdirectories by itself; pick them up
	// here so documents created inside them are still observed.
	if ev.Kind == EventCreate {
		if info, err := os.Stat(ev.Path); err == nil && info.IsDir() {
			if err := f.watcher.Add(ev.Path); err != nil {
				f.log.Warn(ctx, err, "Failed to watch new directory", "path", ev.Path)
			}
			return
		}
	}

	select {
	case f.events <- ev:
	default:
		f.log.Warn(ctx, nil, "Event queue full, dropping event",
			"kind", ev.Kind.String(), "path", ev.Path)
	}
}

// normalizeEvent maps fsnotify operation bits onto the event shape the
// classifier is specified against. fsnotify reports a rename as a
// single-path event for the old name, so it surfaces as the ambiguous
// EventRename kind.
func normalizeEvent(raw fsnotify.Event) (Event, bool) {
	switch {
	case raw.Op&fsnotify.Create == fsnotify.Create:
		return Event{Kind: EventCreate, Path: raw.Name}, true
	case raw.Op&fsnotify.Write == fsnotify.Write:
		return Event{Kind: EventWrite, Path: raw.Name}, true
	case raw.Op&fsnotify.Remove == fsnotify.Remove:
		return Event{Kind: EventRemove, Path: raw.Name}, true
	case raw.Op&fsnotify.Rename == fsnotify.Rename:
		return Event{Kind: EventRename, Path: raw.Name}, true
	case raw.Op&fsnotify.Chmod == fsnotify.Chmod:
		return Event{Kind: EventChmod, Path: raw.Name}, true
	default:
		return Event{}, false
	}
}
