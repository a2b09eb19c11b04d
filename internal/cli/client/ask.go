package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskAPIRequest represents the ask API request.
type AskAPIRequest struct {
	Question     string `json:"question"`
	ChapterID    string `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title,omitempty"`
}

// AskAPIResponse represents the ask API response.
type AskAPIResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float32  `json:"confidence"`
	Outcome    string   `json:"outcome"`
	Method     string   `json:"method"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		chapterID    string
		chapterTitle string
		showSources  bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against a loaded chapter",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			outputJSON, _ := cmd.Flags().GetBool("output")
			question := strings.Join(args, " ")
			return runAsk(api, question, chapterID, chapterTitle, showSources, outputJSON)
		},
	}

	cmd.Flags().StringVar(&chapterID, "chapter", "", "Chapter ID to answer from (required)")
	cmd.Flags().StringVar(&chapterTitle, "chapter-title", "", "Chapter title, used in prompts and rejections")
	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the retrieved source passages")
	cmd.MarkFlagRequired("chapter")

	return cmd
}

func runAsk(api *APIClient, question, chapterID, chapterTitle string, showSources, outputJSON bool) error {
	resp, err := api.Post("/ask", AskAPIRequest{
		Question:     question,
		ChapterID:    chapterID,
		ChapterTitle: chapterTitle,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskAPIResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)
	fmt.Printf("\n[%s via %s, confidence %.1f]\n", askResp.Outcome, askResp.Method, askResp.Confidence)

	if showSources && len(askResp.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, s := range askResp.Sources {
			fmt.Printf("%d. %s\n", i+1, s)
		}
	}

	return nil
}
