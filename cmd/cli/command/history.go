package command

// history.go shows the local reading history recorded by the reader.

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently read chapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := getEnv()
		if err != nil {
			return err
		}
		entries, err := e.Store.RecentReads(limit)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("Nothing read yet.")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("%s  Ch.%g of %s  (%s)\n",
				entry.ChapterID, entry.ChapterNumber, entry.MangaID,
				entry.ReadAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum entries to show")
	rootCmd.AddCommand(historyCmd)
}
