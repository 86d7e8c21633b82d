package command

// bookmark.go manages the server-side bookmark list.

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage your bookmarks",
	Long:  `Add, remove and list bookmarked manga.`,
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add [manga-id]",
	Short: "Bookmark a manga",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mangaID := args[0]

		e, err := getEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}

		if _, err := e.Gateway.AddBookmark(cmd.Context(), mangaID); err != nil {
			return fmt.Errorf("failed to add bookmark: %w", err)
		}
		e.Tracker.BookmarkAdd(mangaID)

		fmt.Printf("✓ Bookmarked %s\n", mangaID)
		return nil
	},
}

var bookmarkRemoveCmd = &cobra.Command{
	Use:   "remove [manga-id]",
	Short: "Remove a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mangaID := args[0]

		e, err := getEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}

		if err := e.Gateway.RemoveBookmark(cmd.Context(), mangaID); err != nil {
			return fmt.Errorf("failed to remove bookmark: %w", err)
		}
		e.Tracker.BookmarkRemove(mangaID)

		fmt.Printf("✓ Removed bookmark for %s\n", mangaID)
		return nil
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}

		bookmarks, err := e.Gateway.ListBookmarks(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list bookmarks: %w", err)
		}
		if len(bookmarks) == 0 {
			fmt.Println("No bookmarks yet.")
			return nil
		}
		for _, b := range bookmarks {
			fmt.Printf("%s  (added %s)\n", b.MangaID, b.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	bookmarkCmd.AddCommand(bookmarkAddCmd)
	bookmarkCmd.AddCommand(bookmarkRemoveCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
	rootCmd.AddCommand(bookmarkCmd)
}
