package cmd

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
)

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Inspect the folder tree and reading order",
	Long: `Prints navigation derived from the document index: the sorted folder tree,
the flattened reading order, or the neighbors of one document. With --url the
index is fetched from a running server or published site.`,
}

var navTreeCmd = &cobra.Command{
	Use:   "tree [folder]",
	Short: "Print the sorted folder tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nav, err := loadNavigation(cmd)
		if err != nil {
			return err
		}
		node := nav.Tree
		if len(args) > 0 {
			found, ok := nav.Tree.Find(cleanURLPath(args[0]))
			if !ok {
				return fmt.Errorf("no folder at %q", args[0])
			}
			node = found
		}
		fmt.Print(node.ToText(nav.Sort))
		return nil
	},
}

var navOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the reading order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nav, err := loadNavigation(cmd)
		if err != nil {
			return err
		}
		for i, rec := range nav.Sequence.Records() {
			fmt.Printf("%3d. %s  %s\n", i+1, rec.Title(), rec.URLPath)
		}
		return nil
	},
}

var navNeighborsCmd = &cobra.Command{
	Use:   "neighbors <path>",
	Short: "Print the breadcrumbs and previous/next links of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nav, err := loadNavigation(cmd)
		if err != nil {
			return err
		}
		p := cleanURLPath(args[0])
		rec, ok := nav.Sequence.Lookup(p)
		if !ok {
			return fmt.Errorf("no document at %q", args[0])
		}

		crumbs := nav.Tree.Breadcrumbs(p)
		titles := make([]string, len(crumbs))
		for i, c := range crumbs {
			titles[i] = c.Title
		}
		fmt.Printf("%s  %s\n", rec.Title(), rec.URLPath)
		fmt.Printf("  in:   %s\n", strings.Join(titles, " > "))

		prev, next, _ := nav.Sequence.Neighbors(p)
		if prev != nil {
			fmt.Printf("  prev: %s  %s\n", prev.Title(), prev.URLPath)
		} else {
			fmt.Println("  prev: -")
		}
		if next != nil {
			fmt.Printf("  next: %s  %s\n", next.Title(), next.URLPath)
		} else {
			fmt.Println("  next: -")
		}
		return nil
	},
}

func init() {
	navCmd.PersistentFlags().String("url", "", "read the index from a running server or published site")
	navCmd.PersistentFlags().String("dir", "", "corpus directory (default from config)")
	navCmd.AddCommand(navTreeCmd, navOrderCmd, navNeighborsCmd)
	rootCmd.AddCommand(navCmd)
}

func loadNavigation(cmd *cobra.Command) (*sequence.Navigation, error) {
	dir, _ := cmd.Flags().GetString("dir")
	siteURL, _ := cmd.Flags().GetString("url")
	cfg, err := loadConfig([]string{dir})
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(context.Background(), cfg, siteURL)
	if err != nil {
		return nil, err
	}
	return sequence.Derive(snap, 1), nil
}

// cleanURLPath accepts "guide/setup", "/guide/setup" or "/guide/setup/".
func cleanURLPath(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return p
	}
	return p + "/"
}
