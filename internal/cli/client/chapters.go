package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ChapterSummaryResponse represents a single chapter in the list response.
type ChapterSummaryResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PassageCount int    `json:"passage_count"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// ChapterDetailResponse represents a single chapter with its sections.
type ChapterDetailResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Sections     []string `json:"sections"`
	PassageCount int      `json:"passage_count"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// ChaptersCmd creates the chapters command group.
func ChaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Manage loaded chapters",
		Long:  "List, inspect, and delete chapters loaded into the knowledge store.",
	}

	cmd.AddCommand(chaptersListCmd())
	cmd.AddCommand(chaptersGetCmd())
	cmd.AddCommand(chaptersDeleteCmd())

	return cmd
}

func chaptersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChaptersList(api, outputJSON)
		},
	}
}

func chaptersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <chapter-id>",
		Short: "Show one chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChaptersGet(api, args[0], outputJSON)
		},
	}
}

func chaptersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chapter-id>",
		Short: "Delete a chapter and its passages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runChaptersDelete(api, args[0])
		},
	}
}

func runChaptersList(api *APIClient, outputJSON bool) error {
	resp, err := api.Get("/chapters")
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var chapters []ChapterSummaryResponse
	if err := json.Unmarshal(resp.Data, &chapters); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chapters, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(chapters) == 0 {
		fmt.Println("No chapters loaded.")
		return nil
	}

	fmt.Printf("Found %d chapters:\n\n", len(chapters))
	for i, c := range chapters {
		fmt.Printf("%d. %s\n", i+1, c.Title)
		fmt.Printf("   ID: %s\n", c.ID)
		fmt.Printf("   Passages: %d\n", c.PassageCount)
		if c.UpdatedAt != "" {
			fmt.Printf("   Updated: %s\n", c.UpdatedAt)
		}
		if i < len(chapters)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}

func runChaptersGet(api *APIClient, chapterID string, outputJSON bool) error {
	resp, err := api.Get("/chapters/" + chapterID)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
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

	fmt.Printf("%s (%s)\n", chapter.Title, chapter.ID)
	fmt.Printf("Passages: %d\n", chapter.PassageCount)
	if len(chapter.Sections) > 0 {
		fmt.Println("Sections:")
		for _, s := range chapter.Sections {
			fmt.Printf("  - %s\n", s)
		}
	}

	return nil
}

func runChaptersDelete(api *APIClient, chapterID string) error {
	if _, err := api.Delete("/chapters/" + chapterID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted chapter %s\n", chapterID)
	return nil
}
