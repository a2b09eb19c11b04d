package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studyforge/tutorai/internal/cli"
	"github.com/studyforge/tutorai/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tutor",
		Short: "TutorAI CLI - Chapter-grounded question answering",
		Long: `TutorAI CLI provides commands to load textbook chapters and ask
questions answered from their content.

Environment variables:
  TUTOR_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChaptersCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
