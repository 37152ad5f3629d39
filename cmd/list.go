package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conneroisu/mdserve/internal/renderer"
	"github.com/conneroisu/mdserve/internal/scanner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:     "list [path]",
	Aliases: []string{"ls"},
	Short:   "List the markdown documents a path would serve",
	Long: `List the markdown documents discovered under a path, in the order
the server would present them.

Examples:
  mdserve list                 # List documents under the current directory
  mdserve list docs/           # List documents under docs/
  mdserve list -f json         # Output as JSON
  mdserve list -f yaml         # Output as YAML`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

// documentListing is one row of list output.
type documentListing struct {
	Path     string    `json:"path" yaml:"path"`
	Title    string    `json:"title" yaml:"title"`
	Size     int64     `json:"size" yaml:"size"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

func runList(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	paths, err := scanner.FindDocuments(root)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(paths) == 0 {
		fmt.Println("No markdown documents found.")
		return nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	listings := make([]documentListing, 0, len(paths))
	for _, path := range paths {
		listing, err := describeDocument(absRoot, path)
		if err != nil {
			// A file vanishing mid-listing is not worth aborting over.
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", path, err)
			continue
		}
		listings = append(listings, listing)
	}

	switch strings.ToLower(listFormat) {
	case "json":
		return outputListJSON(listings)
	case "yaml":
		return outputListYAML(listings)
	case "table":
		return outputListTable(listings)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", listFormat)
	}
}

func describeDocument(absRoot, path string) (documentListing, error) {
	info, err := os.Stat(path)
	if err != nil {
		return documentListing{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return documentListing{}, err
	}

	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	return documentListing{
		Path:     rel,
		Title:    renderer.Title(data, rel),
		Size:     info.Size(),
		Modified: info.ModTime(),
	}, nil
}

func outputListJSON(listings []documentListing) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(listings)
}

func outputListYAML(listings []documentListing) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(listings)
}

func outputListTable(listings []documentListing) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PATH\tTITLE\tSIZE\tMODIFIED")
	for _, listing := range listings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			listing.Path,
			listing.Title,
			listing.Size,
			listing.Modified.Format("2006-01-02 15:04:05"),
		)
	}

	fmt.Fprintf(w, "\nTotal: %d documents\n", len(listings))
	return nil
}
