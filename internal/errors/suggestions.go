// Package errors provides actionable error reporting for the CLI. Failures
// that reach the user carry concrete suggestions for fixing them, not just
// the underlying error string.
package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// ServerStartError generates suggestions for server startup failures
func ServerStartError(err error, port int) []ErrorSuggestion {
	var suggestions []ErrorSuggestion

	errStr := err.Error()

	if strings.Contains(errStr, "address already in use") || strings.Contains(errStr, "bind") {
		suggestions = append(suggestions,
			ErrorSuggestion{
				Title:       "Port already in use",
				Description: fmt.Sprintf("Port %d is already being used by another process", port),
				Command:     fmt.Sprintf("lsof -i :%d", port),
			},
			ErrorSuggestion{
				Title:       "Use a different port",
				Description: "Start the server on a different port",
				Command:     fmt.Sprintf("mdserve --port %d", port+1000),
			},
			ErrorSuggestion{
				Title:       "Kill the process using the port",
				Description: "Stop the process that's using the port",
				Command:     fmt.Sprintf("lsof -ti :%d | xargs kill", port),
			},
		)
	}

	if strings.Contains(errStr, "permission denied") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Permission denied",
			Description: "You don't have permission to bind to this port",
		})

		if port < 1024 {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:       "Use unprivileged port",
				Description: "Ports below 1024 require root privileges",
				Command:     "mdserve --port 8080",
			})
		}
	}

	return suggestions
}

// ConfigurationError generates suggestions for configuration issues
func ConfigurationError(configError string, configPath string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check configuration file",
			Description: "Verify your " + configPath + " file exists and has valid syntax",
			Command:     "cat " + configPath,
		},
	}

	if strings.Contains(configError, "yaml") || strings.Contains(configError, "unmarshal") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Fix YAML syntax",
			Description: "There's a syntax error in your YAML configuration",
			Example:     "Use proper indentation and avoid tabs",
		})
	}

	if strings.Contains(configError, "theme") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use a supported theme",
			Description: "Themes are auto, light, and dark",
			Command:     "mdserve --theme auto",
		})
	}

	if strings.Contains(configError, "port") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use a valid port",
			Description: "Ports range from 0 to 65535; ports below 1024 need privileges",
			Command:     "mdserve --port 8080",
		})
	}

	return suggestions
}

// PathError generates suggestions for unusable serve targets
func PathError(path string, err error) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check the path exists",
			Description: fmt.Sprintf("Verify %q points at a markdown file or a directory", path),
			Command:     "ls -la " + path,
		},
	}

	errStr := err.Error()

	if strings.Contains(errStr, "no such file") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check for typos",
			Description: "The path does not exist; relative paths resolve against the current directory",
			Command:     "pwd",
		})
	}

	if strings.Contains(errStr, "permission denied") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check read permissions",
			Description: "The server needs read access to the file or directory",
		})
	}

	return suggestions
}

// FormatSuggestions renders a title plus numbered suggestions for terminal
// display. With no suggestions the title comes back unchanged.
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nSuggestions:\n", title)

	for i, s := range suggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, s.Title)
		if s.Description != "" {
			fmt.Fprintf(&b, "     %s\n", s.Description)
		}
		if s.Command != "" {
			fmt.Fprintf(&b, "     Run: %s\n", s.Command)
		}
		if s.Example != "" {
			fmt.Fprintf(&b, "     Example: %s\n", s.Example)
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// EnhancedError couples an underlying error with user-facing suggestions. Its
// Error string is the formatted suggestion block, so cobra prints something
// actionable; Unwrap keeps errors.Is working against the cause.
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return FormatSuggestions(e.Title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError wraps err with a title and suggestions for display
func NewEnhancedError(title string, err error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: err,
		Title:         title,
		Suggestions:   suggestions,
	}
}
