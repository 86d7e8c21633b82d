package command

// manga.go handles browsing: list/search the archive and view one manga
// with its chapter list.

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
	"github.com/YumikoKawaii/sherry-archive/internal/tracking"
)

var mangaCmd = &cobra.Command{
	Use:   "manga",
	Short: "Browse the archive",
	Long:  `List, search and view manga in the archive.`,
}

var listMangaCmd = &cobra.Command{
	Use:   "list",
	Short: "List or search manga",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		tag, _ := cmd.Flags().GetString("tag")
		page, _ := cmd.Flags().GetInt("page")

		e, err := getEnv()
		if err != nil {
			return err
		}

		result, err := e.Gateway.ListMangas(cmd.Context(), gateway.MangaFilter{
			Query: query,
			Tag:   tag,
			Page:  page,
		})
		if err != nil {
			return fmt.Errorf("failed to list manga: %w", err)
		}

		if query != "" {
			filters := tracking.Properties{}
			if tag != "" {
				filters["tag"] = tag
			}
			e.Tracker.Search(query, filters, result.Total)
		}
		if tag != "" {
			e.Tracker.TagClick(tag)
		}

		if len(result.Items) == 0 {
			fmt.Println("No manga found.")
			return nil
		}

		fmt.Printf("Found %d manga:\n\n", result.Total)
		for _, m := range result.Items {
			fmt.Printf("%s  %s", m.ID, m.Title)
			if m.Status != "" {
				fmt.Printf("  [%s]", m.Status)
			}
			if len(m.Tags) > 0 {
				fmt.Printf("  (%s)", strings.Join(m.Tags, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

var getMangaCmd = &cobra.Command{
	Use:   "get [manga-id]",
	Short: "Show one manga and its chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mangaID := args[0]

		e, err := getEnv()
		if err != nil {
			return err
		}

		manga, err := e.Gateway.GetManga(cmd.Context(), mangaID)
		if err != nil {
			return fmt.Errorf("failed to get manga: %w", err)
		}
		chapters, err := e.Gateway.ListChapters(cmd.Context(), mangaID)
		if err != nil {
			return fmt.Errorf("failed to list chapters: %w", err)
		}

		e.Tracker.MangaView(mangaID, mangaType(chapters))

		fmt.Printf("%s\n", manga.Title)
		if manga.Description != "" {
			fmt.Printf("%s\n", manga.Description)
		}
		fmt.Printf("Status: %s\n", manga.Status)
		if len(manga.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(manga.Tags, ", "))
		}
		fmt.Printf("\n%d chapter(s):\n", len(chapters))
		for _, ch := range chapters {
			title := ch.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %s  Ch.%g  %s  (%d pages)\n", ch.ID, ch.Number, title, ch.PageCount)
		}
		return nil
	},
}

// mangaType mirrors the archive's convention: a single chapter numbered 0
// marks a oneshot, anything else is a series.
func mangaType(chapters []gateway.Chapter) string {
	if len(chapters) == 1 && chapters[0].Number == 0 {
		return "oneshot"
	}
	return "series"
}

func init() {
	mangaCmd.AddCommand(listMangaCmd)
	mangaCmd.AddCommand(getMangaCmd)
	rootCmd.AddCommand(mangaCmd)

	listMangaCmd.Flags().StringP("query", "q", "", "Search by title")
	listMangaCmd.Flags().StringP("tag", "t", "", "Filter by tag")
	listMangaCmd.Flags().IntP("page", "p", 1, "Page number")
}
