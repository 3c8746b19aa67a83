package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mbr configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure mbr for your markdown folder and generates a .mbr.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
