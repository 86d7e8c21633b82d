package command

// comment.go handles the comment collection through the comments
// controller, so CLI interactions get the same optimistic window behavior
// as the reader.

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YumikoKawaii/sherry-archive/internal/comments"
	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment commands",
	Long: `List, post, edit and delete comments. Comments attach to a manga, or to one
of its chapters when --chapter is given.`,
}

// commentController builds a controller for the scope given by the command
// flags and loads the requested page.
func commentController(cmd *cobra.Command, mangaID string) (*Env, *comments.Controller, error) {
	e, err := getEnv()
	if err != nil {
		return nil, nil, err
	}
	chapterID, _ := cmd.Flags().GetString("chapter")
	scope := gateway.Scope{MangaID: mangaID, ChapterID: chapterID}
	ctrl := comments.NewController(e.Gateway, e.Tracker, scope)
	ctrl.SetLimit(e.Config.CommentPageLimit)
	return e, ctrl, nil
}

var listCommentsCmd = &cobra.Command{
	Use:   "list [manga-id]",
	Short: "List comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		e, ctrl, err := commentController(cmd, args[0])
		if err != nil {
			return err
		}
		if err := ctrl.Load(cmd.Context(), page); err != nil {
			return err
		}

		items := ctrl.Items()
		if len(items) == 0 {
			fmt.Println("No comments yet.")
			return nil
		}

		me := currentUserID(e)
		fmt.Printf("%d comment(s), page %d/%d:\n\n", ctrl.Total(), ctrl.Page(), ctrl.TotalPages())
		for _, c := range items {
			printComment(c, me)
		}
		return nil
	},
}

var postCommentCmd = &cobra.Command{
	Use:   "post [manga-id] [content]",
	Short: "Post a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args[1:], " ")

		e, ctrl, err := commentController(cmd, args[0])
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}

		comment, err := ctrl.Create(cmd.Context(), content)
		if err != nil {
			return err
		}

		fmt.Println("✓ Comment posted!")
		fmt.Printf("ID: %s\n", comment.ID)
		fmt.Printf("Content: %s\n", comment.Content)
		return nil
	},
}

var editCommentCmd = &cobra.Command{
	Use:   "edit [manga-id] [comment-id] [content]",
	Short: "Edit your comment",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args[2:], " ")

		e, ctrl, err := commentController(cmd, args[0])
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}

		ctrl.StartEdit(args[1])
		comment, err := ctrl.Update(cmd.Context(), args[1], content)
		if err != nil {
			return err
		}

		fmt.Println("✓ Comment updated!")
		fmt.Printf("Content: %s\n", comment.Content)
		return nil
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete [manga-id] [comment-id]",
	Short: "Delete your comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, ctrl, err := commentController(cmd, args[0])
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}

		// Best effort: a failed delete is a silent no-op.
		ctrl.Delete(cmd.Context(), args[1])
		fmt.Println("✓ Done.")
		return nil
	},
}

func printComment(c gateway.Comment, currentUser string) {
	marker := ""
	if currentUser != "" && c.Author.ID == currentUser {
		marker = " (you)"
	}
	edited := ""
	if c.Edited {
		edited = " (edited)"
	}
	fmt.Printf("[%s] %s%s at %s%s\n", c.ID, c.Author.Username, marker,
		c.CreatedAt.Format("2006-01-02 15:04"), edited)
	fmt.Printf("    %s\n", c.Content)
}

func init() {
	commentCmd.AddCommand(listCommentsCmd)
	commentCmd.AddCommand(postCommentCmd)
	commentCmd.AddCommand(editCommentCmd)
	commentCmd.AddCommand(deleteCommentCmd)
	rootCmd.AddCommand(commentCmd)

	commentCmd.PersistentFlags().StringP("chapter", "c", "", "Chapter ID for chapter-scoped comments")
	listCommentsCmd.Flags().IntP("page", "p", 1, "Page number")
}
