package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mbr",
	Short: "Browse, search, and publish a folder of markdown",
	Long: `mbr turns a directory of markdown files into a navigable site: a folder
tree and book-style reading order derived from frontmatter, full-text search
against a live server or a prebuilt static index, and fuzzy in-page
navigation. Serve it live while you write, or publish it as static files.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".mbr.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
