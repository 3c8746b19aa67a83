package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/fuzzy"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file> [query]",
	Short: "List or fuzzy-match the headings and links of a document",
	Long: `Without a query, prints every heading and link of a markdown file in source
order. With a query, prints the matches best first, the same ranking the
in-page navigator uses.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().Bool("json", false, "print matches as JSON")
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	// Line numbers are reported against the body so frontmatter is skipped.
	_, body, err := docindex.SplitFrontmatter(raw)
	if err != nil {
		body = raw
	}

	query := ""
	if len(args) > 1 {
		query = args[1]
	}
	matches := fuzzy.Filter(fuzzy.Outline(body), query, fuzzy.Viewport{Bottom: -1})

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(matches)
	}
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, m := range matches {
		indent := ""
		if m.Kind == fuzzy.KindHeading && m.Level > 1 {
			indent = strings.Repeat("  ", m.Level-1)
		}
		fmt.Printf("%s%-7s %s -> %s (line %d)\n", indent, m.Kind, m.Text, m.Target, int(m.Top))
	}
	return nil
}
