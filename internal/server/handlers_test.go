package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doGet runs one GET against the server's handler without binding a socket.
func doGet(s *PreviewServer, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestServeRootRendersFirstDocument(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"alpha.md": "# Alpha",
		"beta.md":  "# Beta",
	})

	rec := doGet(s, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>Alpha</h1>")
	assert.Contains(t, rec.Body.String(), "<title>Alpha</title>")
}

func TestServeRootEmptyDirectory(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{})

	rec := doGet(s, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "No files available to serve", rec.Body.String())
}

func TestServeRootSingleFileMode(t *testing.T) {
	s, _ := newFileServer(t, "# Solo Page")

	rec := doGet(s, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Solo Page</h1>")
}

func TestServeDocumentByPath(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"readme.md":     "# Top",
		"docs/guide.md": "# Guide",
	})

	rec := doGet(s, "/docs/guide.md")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Guide</h1>")
}

func TestServeDocumentUppercaseExtension(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"NOTES.MD": "# Shouted",
	})

	rec := doGet(s, "/NOTES.MD")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Shouted</h1>")
}

func TestServeUnknownDocument(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{"readme.md": "# Here"})

	rec := doGet(s, "/missing.md")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "File not found", rec.Body.String())
}

func TestServeNonServableExtension(t *testing.T) {
	s, dir := newDirectoryServer(t, map[string]string{"readme.md": "# Here"})
	writeFile(t, dir, "script.sh", "#!/bin/sh\n")

	rec := doGet(s, "/script.sh")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", rec.Body.String())
}

func TestServeDocumentPicksUpEdits(t *testing.T) {
	s, dir := newDirectoryServer(t, map[string]string{"readme.md": "# First draft"})

	rec := doGet(s, "/readme.md")
	require.Contains(t, rec.Body.String(), "First draft")

	// Bump the modification time explicitly so the rewrite is strictly
	// newer even on filesystems with coarse timestamps.
	path := writeFile(t, dir, "readme.md", "# Second draft")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	rec = doGet(s, "/readme.md")
	assert.Contains(t, rec.Body.String(), "Second draft")
	assert.NotContains(t, rec.Body.String(), "First draft")
}

func TestServeDocumentStaleAfterDelete(t *testing.T) {
	s, dir := newDirectoryServer(t, map[string]string{"readme.md": "# Still here"})

	require.NoError(t, os.Remove(filepath.Join(dir, "readme.md")))

	// The file is gone but the document stays tracked. A refresh failure
	// keeps serving the last good render.
	rec := doGet(s, "/readme.md")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Still here")
}

func TestSingleFileModeIgnoresSiblings(t *testing.T) {
	s, dir := newFileServer(t, "# The one")
	writeFile(t, dir, "other.md", "# Not served")

	rec := doGet(s, "/other.md")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", rec.Body.String())
}

func TestServeImage(t *testing.T) {
	s, dir := newDirectoryServer(t, map[string]string{"readme.md": "# Pics"})
	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), data, 0o644))

	rec := doGet(s, "/logo.png")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestServeImageNested(t *testing.T) {
	s, dir := newDirectoryServer(t, map[string]string{"readme.md": "# Pics"})
	writeFile(t, dir, "docs/img/chart.svg", "<svg></svg>")

	rec := doGet(s, "/docs/img/chart.svg")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
}

func TestServeImageMissing(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{"readme.md": "# Pics"})

	rec := doGet(s, "/missing.png")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "File not found\n", rec.Body.String())
}

func TestServeImageSymlinkOutsideRoot(t *testing.T) {
	s, dir := newDirectoryServer(t, map[string]string{"readme.md": "# Pics"})

	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.png")
	require.NoError(t, os.WriteFile(secret, []byte("private"), 0o644))
	require.NoError(t, os.Symlink(secret, filepath.Join(dir, "leak.png")))

	rec := doGet(s, "/leak.png")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied\n", rec.Body.String())
}

func TestServeImageTraversalRejected(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{"readme.md": "# Pics"})

	// The mux would collapse dot segments before routing, so exercise the
	// handler directly with the hostile path.
	req := httptest.NewRequest(http.MethodGet, "/x.png", nil)
	rec := httptest.NewRecorder()
	s.serveImage(rec, req, "../outside.png")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied\n", rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{"readme.md": "# RO"})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNavigationShownInDirectoryMode(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"readme.md":     "# Top",
		"docs/guide.md": "# Guide",
	})

	rec := doGet(s, "/readme.md")
	body := rec.Body.String()

	assert.Contains(t, body, `<nav id="sidebar">`)
	assert.Contains(t, body, `href="/docs/guide.md"`)
	assert.Contains(t, body, `class="file active"`)
}

func TestNavigationHiddenInSingleFileMode(t *testing.T) {
	s, _ := newFileServer(t, "# Lone")

	rec := doGet(s, "/")

	assert.NotContains(t, rec.Body.String(), `<nav id="sidebar">`)
}

func TestMermaidScriptOnlyWhenFenced(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"diagram.md": "# Flow\n\n```mermaid\ngraph TD;\nA-->B;\n```\n",
		"plain.md":   "# Plain\n\nNo diagrams, just the word mermaid.\n",
	})

	rec := doGet(s, "/diagram.md")
	assert.Contains(t, rec.Body.String(), "mermaid.esm.min.mjs")

	rec = doGet(s, "/plain.md")
	assert.NotContains(t, rec.Body.String(), "mermaid.esm.min.mjs")
}

func TestPageTitleFromFrontMatter(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"readme.md": "---\ntitle: Custom Title\n---\n\n# Heading\n",
	})

	rec := doGet(s, "/readme.md")

	assert.Contains(t, rec.Body.String(), "<title>Custom Title</title>")
}

func TestPageTitleFallsBackToHeading(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{
		"getting-started.md": "# Getting Started Guide\n\nIntro.\n",
	})

	rec := doGet(s, "/getting-started.md")

	assert.Contains(t, rec.Body.String(), "<title>Getting Started Guide</title>")
}

func TestThemeAttributePropagates(t *testing.T) {
	s, _ := newDirectoryServer(t, map[string]string{"readme.md": "# Themed"})
	s.config.Server.Theme = "dark"

	rec := doGet(s, "/")

	assert.Contains(t, rec.Body.String(), `data-theme="dark"`)
}

func TestBuildNavTreeOrdering(t *testing.T) {
	keys := []string{"Alpha.md", "beta.md", "docs/guide.md", "zeta.md"}

	tree := buildNavTree(keys, "beta.md")

	require.Len(t, tree, 4)
	assert.Equal(t, "Alpha.md", tree[0].Name)
	assert.Equal(t, "beta.md", tree[1].Name)
	assert.Equal(t, "docs", tree[2].Name)
	assert.Equal(t, "zeta.md", tree[3].Name)

	assert.False(t, tree[0].Active)
	assert.True(t, tree[1].Active)

	require.True(t, tree[2].IsDir)
	require.Len(t, tree[2].Children, 1)
	assert.Equal(t, "guide.md", tree[2].Children[0].Name)
	assert.Equal(t, "docs/guide.md", tree[2].Children[0].Path)
}

func TestBuildNavTreeNestedDirectories(t *testing.T) {
	tree := buildNavTree([]string{"a/b/c.md"}, "")

	require.Len(t, tree, 1)
	require.True(t, tree[0].IsDir)
	assert.Equal(t, "a", tree[0].Name)

	require.Len(t, tree[0].Children, 1)
	require.True(t, tree[0].Children[0].IsDir)
	assert.Equal(t, "b", tree[0].Children[0].Name)

	leaf := tree[0].Children[0].Children
	require.Len(t, leaf, 1)
	assert.Equal(t, "c.md", leaf[0].Name)
	assert.Equal(t, "a/b/c.md", leaf[0].Path)
}

func TestBuildNavTreeEmpty(t *testing.T) {
	assert.Empty(t, buildNavTree(nil, ""))
}

func TestContainsMermaid(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     bool
	}{
		{
			"fenced block",
			`<pre><code class="language-mermaid">graph TD;</code></pre>`,
			true,
		},
		{
			"among other classes",
			`<code class="hljs language-mermaid wrap">graph</code>`,
			true,
		},
		{
			"prose mention",
			`<p>use the language-mermaid class for diagrams</p>`,
			false,
		},
		{
			"other language",
			`<pre><code class="language-go">func main() {}</code></pre>`,
			false,
		},
		{
			"class on non-code element",
			`<div class="language-mermaid">not a code block</div>`,
			false,
		},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsMermaid(tt.fragment))
		})
	}
}

func TestImageContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.png", "image/png"},
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.gif", "image/gif"},
		{"a.svg", "image/svg+xml"},
		{"a.webp", "image/webp"},
		{"a.bmp", "image/bmp"},
		{"a.ico", "image/x-icon"},
		{"a.PNG", "image/png"},
		{"a.unknown", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, imageContentType(tt.path))
		})
	}
}
