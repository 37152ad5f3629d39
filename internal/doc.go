// Package internal contains the core implementation packages for mdserve.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the mdserve CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Viper-based configuration with validation
//   - errors: actionable startup error reporting with suggestions
//   - logging: structured slog-based logging shared by all components
//   - registry: tracked-document store and reload broadcasting
//   - renderer: markdown to HTML conversion with front matter handling
//   - scanner: initial document discovery under a served root
//   - server: HTTP routes, page layout, and WebSocket live reload
//   - validation: URL and request-path safety checks
//   - version: build and version metadata reporting
//   - watcher: file system monitoring and change classification
//
// # Data Flow
//
// One pipeline connects the packages at runtime:
//
//   - Watcher emits normalized file system events
//   - The watch pump classifies each event and mutates the registry
//   - The registry re-renders changed documents through the renderer
//   - The broadcaster fans a reload message out to connected viewers
//   - The server handles viewer requests by reading the registry
//
// The pump applies watch events; request handlers additionally refresh a
// document on demand before serving it, through the same strictly-newer
// timestamp gate. Mutation always completes before the matching broadcast
// is published, so a viewer that re-fetches on reload sees the updated
// document.
//
// For detailed documentation, see the individual package documentation.
package internal
