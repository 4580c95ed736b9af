package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wikitutor",
	Short: "Turn Wikipedia articles into guided lessons with quizzes",
	Long: `Wikitutor turns a Wikipedia article into a sequence of lessons.

Each section of the article is sent to a generative model, which returns:
  - An optional inquiry question framing the section
  - A structured explanation of its core concepts
  - A short scaffolded quiz

Results are streamed section by section as newline-delimited JSON.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.wikitutor/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "wikitutor home directory (default: ~/.wikitutor)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
