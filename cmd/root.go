// Package cmd implements the command-line interface for the audit engine.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rivalworks/rivalaudit/cmd/audit"
	"github.com/rivalworks/rivalaudit/cmd/serve"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// rootCmd represents the root command for the rivalaudit CLI.
	rootCmd = &cobra.Command{
		Use:   "rivalaudit",
		Short: "A website audit engine",
		Long:  `Crawl a website, evaluate it against a fixed SEO checklist, and classify deficiencies by severity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (defaults and environment variables are used when omitted)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rivalaudit version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(serve.Command(&cfgFile))
	rootCmd.AddCommand(audit.Command(&cfgFile))
}
