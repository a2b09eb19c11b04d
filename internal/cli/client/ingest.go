package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// IngestAPIRequest represents the chapter ingestion request.
type IngestAPIRequest struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Sections []SectionPayload `json:"sections,omitempty"`
}

// SectionPayload is one titled section of a chapter document.
type SectionPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var (
		chapterID string
		title     string
		file      string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a chapter document",
		Long:  "Reads a chapter document from a file and loads it into the knowledge store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(api, chapterID, title, file, outputJSON)
		},
	}

	cmd.Flags().StringVar(&chapterID, "id", "", "Chapter ID (required)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Chapter title (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the chapter document (required)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runIngest(api *APIClient, chapterID, title, file string, outputJSON bool) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	resp, err := api.Post("/chapters", IngestAPIRequest{
		ID:      chapterID,
		Title:   title,
		Content: string(content),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var chapter ChapterDetailResponse
	if err := json.Unmarshal(resp.Data, &chapter); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chapter, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Ingested chapter %s (%s) with %d passages\n", chapter.Title, chapter.ID, chapter.PassageCount)
	return nil
}
