// Package renderer converts markdown source into the HTML fragments served
// to viewers.
//
// Rendering uses goldmark with the GitHub Flavored Markdown extensions and
// raw HTML passthrough enabled, matching what authors expect from README
// previews. A front matter block at the top of a document (YAML fenced by
// "---" lines or TOML fenced by "+++" lines) is recognized, excluded from
// the rendered output, and exposed as metadata for title extraction.
package renderer

import (
	"bytes"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrorPlaceholder is returned in place of rendered output when the
// markdown engine fails. Render never propagates an error.
const ErrorPlaceholder = "Error parsing markdown"

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render converts markdown source to an HTML fragment. Front matter is
// stripped before conversion. Render is total: conversion failures yield
// ErrorPlaceholder instead of an error.
func Render(src []byte) string {
	body, _, _ := splitFrontMatter(src)

	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return ErrorPlaceholder
	}
	return buf.String()
}

// Title returns the display title for a document: the front matter "title"
// value when present, otherwise the first ATX heading, otherwise a
// title-cased form of the fallback (typically the file name).
func Title(src []byte, fallback string) string {
	body, meta, fence := splitFrontMatter(src)

	if title := metaTitle(meta, fence); title != "" {
		return title
	}
	if title := firstHeading(body); title != "" {
		return title
	}
	return DisplayName(fallback)
}

// DisplayName derives a human-readable name from a file name or key:
// directory prefix and extension dropped, separators spaced, title-cased.
func DisplayName(name string) string {
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	// cases.Caser carries internal state, so build one per call.
	return cases.Title(language.English).String(name)
}

// splitFrontMatter separates a leading front matter block from the document
// body. The opening fence must be the first line ("---" for YAML, "+++" for
// TOML) and the closing fence a later line consisting of the same marker;
// without a closing fence the whole input is treated as body.
func splitFrontMatter(src []byte) (body, meta []byte, fence string) {
	for _, marker := range []string{"---", "+++"} {
		rest, ok := cutLine(src, marker)
		if !ok {
			continue
		}
		offset := 0
		for offset <= len(rest) {
			line, next := nextLine(rest[offset:])
			if line == marker {
				bodyStart := offset + next
				if next == 0 {
					bodyStart = len(rest)
				}
				return rest[bodyStart:], rest[:offset], marker
			}
			if next == 0 {
				break
			}
			offset += next
		}
	}
	return src, nil, ""
}

// cutLine strips a first line consisting exactly of marker, tolerating a
// trailing carriage return.
func cutLine(src []byte, marker string) ([]byte, bool) {
	line, next := nextLine(src)
	if line != marker || next == 0 {
		return src, false
	}
	return src[next:], true
}

// nextLine returns the first line of b without its terminator and the
// offset of the following line. A zero offset means b has no newline.
func nextLine(b []byte) (string, int) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return strings.TrimSuffix(string(b), "\r"), 0
	}
	return strings.TrimSuffix(string(b[:idx]), "\r"), idx + 1
}

// metaTitle extracts the "title" key from a front matter block.
func metaTitle(meta []byte, fence string) string {
	if len(meta) == 0 {
		return ""
	}

	var fields map[string]interface{}
	switch fence {
	case "---":
		if err := yaml.Unmarshal(meta, &fields); err != nil {
			return ""
		}
	case "+++":
		if err := toml.Unmarshal(meta, &fields); err != nil {
			return ""
		}
	default:
		return ""
	}

	if title, ok := fields["title"].(string); ok {
		return strings.TrimSpace(title)
	}
	return ""
}

// firstHeading returns the text of the first ATX heading in the body.
func firstHeading(body []byte) string {
	for offset := 0; offset <= len(body); {
		line, next := nextLine(body[offset:])
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
		if next == 0 {
			break
		}
		offset += next
	}
	return ""
}
