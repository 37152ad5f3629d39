package watcher

import (
	"os"
	"path/filepath"
	"strings"
)

// documentExtensions is the fixed allow-list of extensions treated as
// servable documents. Matching is case-insensitive.
var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// assetExtensions are image extensions a rendered page may reference.
// Changes to these files redraw pages without touching the document set.
var assetExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".bmp":  true,
	".ico":  true,
}

// IsDocument reports whether path has a servable document extension.
func IsDocument(path string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsAsset reports whether path has a recognized image extension.
func IsAsset(path string) bool {
	return assetExtensions[strings.ToLower(filepath.Ext(path))]
}

// Op is the semantic operation derived from one raw event.
type Op int

const (
	// OpIgnore discards the event.
	OpIgnore Op = iota
	// OpContentChanged refreshes (or, in dynamic mode, admits) the
	// document at Path.
	OpContentChanged
	// OpCreated is OpContentChanged for a path first seen via a create
	// notification. The store treats both the same way; the distinction
	// survives for logging because editors blur create and write.
	OpCreated
	// OpAssetChanged publishes a reload without mutating the store.
	OpAssetChanged
)

// String returns the string representation of the operation
func (o Op) String() string {
	switch o {
	case OpIgnore:
		return "ignore"
	case OpContentChanged:
		return "content-changed"
	case OpCreated:
		return "created"
	case OpAssetChanged:
		return "asset-changed"
	default:
		return "unknown"
	}
}

// Action pairs an operation with the path it applies to.
type Action struct {
	Op   Op
	Path string
}

// ignore is the zero Action.
var ignore = Action{Op: OpIgnore}

// Classify turns one normalized filesystem event into at most one semantic
// operation.
//
// The rules encode how editors actually save files. Removals never produce
// an operation: editors like neovim save by renaming the live file to a
// backup and writing a fresh file at the original name, and acting on the
// intermediate removal would give viewers a 404 window. Rename halves are
// classified by whichever path survives; a single-sided rename that could
// be either half is resolved by checking the disk, which is best-effort on
// platforms that split renames into uncorrelated events.
func Classify(ev Event) Action {
	switch ev.Kind {
	case EventCreate:
		return classifyChange(ev.Path, OpCreated)
	case EventWrite:
		return classifyChange(ev.Path, OpContentChanged)
	case EventRemove:
		if IsAsset(ev.Path) {
			return Action{Op: OpAssetChanged, Path: ev.Path}
		}
		return ignore
	case EventRenameBoth:
		if ev.NewPath == "" {
			return ignore
		}
		return classifyRenameTarget(ev.NewPath)
	case EventRenameFrom:
		// The old identity going away; symmetric with removal.
		return ignore
	case EventRenameTo:
		return classifyRenameTarget(ev.Path)
	case EventRename:
		// Ambiguous single-sided rename: an existing path is the new
		// location, an absent one the vanished old location.
		if _, err := os.Stat(ev.Path); err != nil {
			return ignore
		}
		return classifyRenameTarget(ev.Path)
	default:
		return ignore
	}
}

// classifyChange maps a create or write notification on path.
func classifyChange(path string, docOp Op) Action {
	if IsDocument(path) {
		return Action{Op: docOp, Path: path}
	}
	if IsAsset(path) {
		return Action{Op: OpAssetChanged, Path: path}
	}
	return ignore
}

// classifyRenameTarget maps the surviving side of a rename. Only documents
// matter here: a rename onto an asset name is not a content signal.
func classifyRenameTarget(path string) Action {
	if IsDocument(path) {
		return Action{Op: OpContentChanged, Path: path}
	}
	return ignore
}
