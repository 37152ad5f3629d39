// Package docs describes mdserve, a live-preview server for markdown files.
//
// mdserve renders markdown to HTML and serves it over HTTP with live
// reload: edits on disk push a refresh to every open browser tab over a
// WebSocket connection, so the preview always matches the file being
// written.
//
// # Key Features
//
//   - Single-file and directory serving: preview one document or a whole
//     tree with a navigation sidebar
//   - Live Reload: file system watching pushes changes to viewers as they
//     happen
//   - GitHub Flavored Markdown: tables, task lists, strikethrough, and raw
//     HTML passthrough
//   - Front matter: YAML and TOML metadata blocks are recognized, stripped
//     from output, and used for page titles
//   - Mermaid diagrams: fenced mermaid blocks render as diagrams in the
//     browser
//   - Themes: automatic, light, and dark color schemes
//   - Image serving: documents may reference images under the served root,
//     with path traversal protection
//
// # Quick Start
//
//	// Preview a single file
//	mdserve README.md
//
//	// Preview a directory with navigation
//	mdserve docs/
//
//	// Serve the current directory on a chosen port and open the browser
//	mdserve -p 3000 --open
//
//	// List the documents a path would serve
//	mdserve list docs/
//
// # Architecture
//
// The module is organized into several core components:
//
//   - CLI Commands (cmd/): Cobra-based command interface
//   - Document Registry (internal/registry/): tracked documents and reload
//     broadcasting
//   - Renderer (internal/renderer/): goldmark-based markdown conversion
//   - Preview Server (internal/server/): HTTP routes, page layout, and
//     WebSocket live reload
//   - File Watcher (internal/watcher/): file system monitoring and change
//     classification
//   - Configuration (internal/config/): Viper-based configuration
//     management
//
// # Configuration
//
// mdserve supports configuration through multiple sources, flags taking
// precedence over environment variables over the config file:
//
//   - Configuration file (.mdserve.yml)
//   - Environment variables (MDSERVE_*)
//   - Command-line flags
//
// Example configuration:
//
//	server:
//	  port: 8080
//	  host: localhost
//	  theme: auto
//	  open: false
//
//	log:
//	  level: info
//	  format: text
//
// For more information, see the individual package documentation.
package docs
