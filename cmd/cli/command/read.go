package command

// read.go is the interactive reader: one chapter at a time, page by page,
// with keyboard chapter navigation, an auto-hiding header and chapter
// comments. Input is line-based; arrow-key escape sequences are accepted
// alongside plain letters.

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YumikoKawaii/sherry-archive/internal/comments"
	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
	"github.com/YumikoKawaii/sherry-archive/internal/reader"
)

var readCmd = &cobra.Command{
	Use:   "read [manga-id] [chapter-id]",
	Short: "Read a chapter",
	Long: `Open a chapter in the interactive reader. With no chapter id, reading starts
at the first chapter.

Keys (press Enter after each):
  <Enter> / n   next page
  b             previous page
  →  / N        next chapter
  ←  / P        previous chapter
  c             show chapter comments
  q             quit`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv()
		if err != nil {
			return err
		}

		mangaID := args[0]
		var chapterID string
		if len(args) > 1 {
			chapterID = args[1]
		} else {
			chapterID, err = firstChapterID(cmd.Context(), e, mangaID)
			if err != nil {
				return err
			}
		}

		return runReader(cmd.Context(), e, mangaID, chapterID, cmd.InOrStdin())
	},
}

func firstChapterID(ctx context.Context, e *Env, mangaID string) (string, error) {
	chapters, err := e.Gateway.ListChapters(ctx, mangaID)
	if err != nil {
		return "", fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		return "", fmt.Errorf("manga %s has no chapters", mangaID)
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return chapters[0].ID, nil
}

// key is one decoded reader input.
type key int

const (
	keyNone key = iota
	keyQuit
	keyNextPage
	keyPrevPage
	keyNextChapter
	keyPrevChapter
	keyComments
)

func decodeKey(line string) key {
	switch strings.TrimSpace(line) {
	case "q", "quit":
		return keyQuit
	case "", "n":
		return keyNextPage
	case "b":
		return keyPrevPage
	case "N", "\x1b[C": // right arrow
		return keyNextChapter
	case "P", "\x1b[D": // left arrow
		return keyPrevChapter
	case "c":
		return keyComments
	default:
		return keyNone
	}
}

func runReader(ctx context.Context, e *Env, mangaID, chapterID string, stdin io.Reader) error {
	session := reader.NewController(e.Gateway, e.Tracker)
	header := reader.NewIdleTimer(e.Config.HeaderHideDelay, nil)
	defer header.Stop()

	chapterComments := comments.NewController(e.Gateway, e.Tracker, gateway.Scope{MangaID: mangaID})
	chapterComments.SetLimit(e.Config.CommentPageLimit)

	if err := session.Enter(ctx, mangaID, chapterID); err != nil {
		printSessionFailure(mangaID, err)
		return nil
	}
	onChapterEntered(ctx, e, session, chapterComments)

	pageIdx := 0
	in := bufio.NewReader(stdin)
	for {
		header.SignalActivity()
		renderPage(session, header, pageIdx)

		pages := session.Pages()
		if len(pages) > 0 && pageIdx == len(pages)-1 {
			session.MarkLastPageVisible()
		}

		line, err := in.ReadString('\n')
		if err != nil {
			return nil // EOF ends the session
		}

		switch decodeKey(line) {
		case keyQuit:
			return nil
		case keyNextPage:
			if pageIdx < len(pages)-1 {
				pageIdx++
			}
		case keyPrevPage:
			if pageIdx > 0 {
				pageIdx--
			}
		case keyNextChapter, keyPrevChapter:
			direction := reader.DirectionNext
			if decodeKey(line) == keyPrevChapter {
				direction = reader.DirectionPrevious
			}
			// Targets come from the live session, never a stale snapshot.
			err := session.Navigate(ctx, direction)
			if err == reader.ErrNoAdjacentChapter {
				continue
			}
			if err != nil {
				printSessionFailure(mangaID, err)
				return nil
			}
			pageIdx = 0
			onChapterEntered(ctx, e, session, chapterComments)
		case keyComments:
			renderComments(e, session, chapterComments)
		}
	}
}

// onChapterEntered runs the per-chapter side effects after a successful
// Enter: history recording and comment scope switching.
func onChapterEntered(ctx context.Context, e *Env, session *reader.Controller, chapterComments *comments.Controller) {
	chapter, ok := session.Chapter()
	if !ok {
		return
	}
	if err := e.Store.RecordRead(chapter.MangaID, chapter.ID, chapter.Number); err != nil {
		// History is a convenience; reading continues without it.
		fmt.Printf("(history not recorded: %v)\n", err)
	}
	if session.ShowChapterComments() {
		scope := gateway.Scope{MangaID: chapter.MangaID, ChapterID: chapter.ID}
		// A failed load keeps whatever window was shown before.
		_ = chapterComments.SwitchScope(ctx, scope)
	}
}

func printSessionFailure(mangaID string, err error) {
	fmt.Printf("\nFailed to load chapter: %v\n", err)
	fmt.Printf("Back to manga: sherry manga get %s\n", mangaID)
}

func renderPage(session *reader.Controller, header *reader.IdleTimer, pageIdx int) {
	chapter, ok := session.Chapter()
	if !ok {
		return
	}
	pages := session.Pages()

	if header.Visible() {
		title := ""
		if chapter.Title != "" {
			title = " — " + chapter.Title
		}
		fmt.Printf("\n=== Chapter %g%s (%d pages) ===\n", chapter.Number, title, len(pages))
		if prev := session.Previous(); prev != nil {
			fmt.Printf("  ← Ch.%g", prev.Number)
		}
		if next := session.Next(); next != nil {
			fmt.Printf("  Ch.%g →", next.Number)
		}
		fmt.Println()
	}

	if len(pages) == 0 {
		fmt.Println("(no pages)")
		return
	}
	page := pages[pageIdx]
	fmt.Printf("[%d/%d] %s\n", page.Number, len(pages), page.URL)
}

func renderComments(e *Env, session *reader.Controller, chapterComments *comments.Controller) {
	if !session.ShowChapterComments() {
		fmt.Println("This chapter has no discussion.")
		return
	}
	items := chapterComments.Items()
	if len(items) == 0 {
		fmt.Println("No comments yet.")
		return
	}
	me := currentUserID(e)
	fmt.Printf("\n%d comment(s):\n", chapterComments.Total())
	for _, c := range items {
		printComment(c, me)
	}
}

func init() {
	rootCmd.AddCommand(readCmd)
}
