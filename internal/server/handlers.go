package server

import (
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/mdserve/internal/renderer"
	"github.com/conneroisu/mdserve/internal/validation"
	"github.com/conneroisu/mdserve/internal/watcher"
	"golang.org/x/net/html"
)

func (s *PreviewServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// handleRequest dispatches on the requested extension: documents render as
// pages, image assets stream from disk, everything else is not found.
func (s *PreviewServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/" {
		s.serveFirstDocument(w, r)
		return
	}

	requested := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case watcher.IsDocument(requested):
		s.serveDocument(w, r, requested)
	case watcher.IsAsset(requested):
		s.serveImage(w, r, requested)
	default:
		htmlError(w, "File not found", http.StatusNotFound)
	}
}

func (s *PreviewServer) serveFirstDocument(w http.ResponseWriter, r *http.Request) {
	keys := s.registry.Keys()
	if len(keys) == 0 {
		htmlError(w, "No files available to serve", http.StatusInternalServerError)
		return
	}

	key := keys[0]
	if err := s.registry.Refresh(key); err != nil {
		s.log.Debug(r.Context(), "Serving stale artifact", "key", key, "error", err.Error())
	}
	s.renderPage(w, r, key)
}

func (s *PreviewServer) serveDocument(w http.ResponseWriter, r *http.Request, key string) {
	if !s.registry.Tracked(key) {
		htmlError(w, "File not found", http.StatusNotFound)
		return
	}

	// A failed refresh keeps the previous artifact; a stale page beats an
	// error page mid-edit.
	if err := s.registry.Refresh(key); err != nil {
		s.log.Debug(r.Context(), "Serving stale artifact", "key", key, "error", err.Error())
	}
	s.renderPage(w, r, key)
}

func (s *PreviewServer) renderPage(w http.ResponseWriter, r *http.Request, key string) {
	doc, ok := s.registry.Document(key)
	if !ok {
		htmlError(w, "File not found", http.StatusNotFound)
		return
	}

	data := pageData{
		Title:          s.pageTitle(doc.Path, key),
		Content:        template.HTML(doc.HTML),
		Theme:          s.config.Server.Theme,
		Mermaid:        containsMermaid(doc.HTML),
		ShowNavigation: s.registry.Dynamic(),
	}
	if data.ShowNavigation {
		data.Tree = buildNavTree(s.registry.Keys(), key)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Error(r.Context(), err, "Failed to render page", "key", key)
	}
}

// pageTitle extracts the display title from the document source, falling
// back to the key when the file cannot be read mid-save.
func (s *PreviewServer) pageTitle(path, key string) string {
	src, err := os.ReadFile(path)
	if err != nil {
		return renderer.DisplayName(key)
	}
	return renderer.Title(src, key)
}

func (s *PreviewServer) serveImage(w http.ResponseWriter, r *http.Request, requested string) {
	if err := validation.ValidateRequestPath(requested); err != nil {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	full := filepath.Join(s.registry.Root(), filepath.FromSlash(requested))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	// Symlinks resolved, the file must still live under the served root.
	root := s.registry.Root()
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	contents, err := os.ReadFile(resolved)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", imageContentType(requested))
	if _, err := w.Write(contents); err != nil {
		s.log.Debug(r.Context(), "Failed to write image response", "error", err.Error())
	}
}

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
}

func imageContentType(path string) string {
	if ct, ok := imageContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// htmlError writes a bare HTML error body, the shape viewers get for missing
// documents.
func htmlError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	io.WriteString(w, message)
}

// containsMermaid reports whether the rendered fragment carries a mermaid
// code block. Tokenizing beats substring search here: a document discussing
// the class name in prose must not trigger script injection.
func containsMermaid(fragment string) bool {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "code" || !hasAttr {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if string(key) == "class" && hasClass(string(val), "language-mermaid") {
					return true
				}
				if !more {
					break
				}
			}
		}
	}
}

func hasClass(attr, want string) bool {
	for _, class := range strings.Fields(attr) {
		if class == want {
			return true
		}
	}
	return false
}

// navNode is one entry in the sidebar file tree.
type navNode struct {
	Name     string
	Path     string
	IsDir    bool
	Active   bool
	Children []navNode
}

// buildNavTree groups slash-separated keys into a nested tree for the
// navigation sidebar, marking the currently viewed document.
func buildNavTree(keys []string, current string) []navNode {
	return buildNavLevel(keys, "", current)
}

func buildNavLevel(paths []string, prefix, current string) []navNode {
	dirs := make(map[string][]string)
	var dirNames []string
	var files []string

	for _, path := range paths {
		if i := strings.IndexByte(path, '/'); i >= 0 {
			name := path[:i]
			if _, seen := dirs[name]; !seen {
				dirNames = append(dirNames, name)
			}
			dirs[name] = append(dirs[name], path[i+1:])
		} else {
			files = append(files, path)
		}
	}
	sort.Strings(dirNames)

	nodes := make([]navNode, 0, len(dirNames)+len(files))
	for _, name := range dirNames {
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		nodes = append(nodes, navNode{
			Name:     name,
			IsDir:    true,
			Children: buildNavLevel(dirs[name], childPrefix, current),
		})
	}
	for _, name := range files {
		full := name
		if prefix != "" {
			full = prefix + "/" + name
		}
		nodes = append(nodes, navNode{
			Name:   name,
			Path:   full,
			Active: full == current,
		})
	}

	// One ordering across both kinds: lowercased name, directories keeping
	// their place on ties.
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
	return nodes
}
