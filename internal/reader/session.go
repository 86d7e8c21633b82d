package reader

// session.go drives a linear reading session across the ordered chapter
// sequence of one manga. A session is a value: every navigation tears it down
// and rebuilds it from fresh fetches, so prev/next targets, the comment
// scope and the session clock always reset together.

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
)

// State is the session lifecycle: Loading -> Ready on dual fetch success,
// Loading -> Failed on any fetch failure, Ready -> Loading on navigation.
// Failed is terminal until a new Enter.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Direction string

const (
	DirectionPrevious Direction = "prev"
	DirectionNext     Direction = "next"
)

var (
	ErrNoSession         = errors.New("no active reading session")
	ErrNoAdjacentChapter = errors.New("no chapter in that direction")
)

// Gateway is the slice of the archive API the session needs.
type Gateway interface {
	GetChapter(ctx context.Context, mangaID, chapterID string) (gateway.ChapterWithPages, error)
	ListChapters(ctx context.Context, mangaID string) ([]gateway.Chapter, error)
}

// Recorder receives the reading engagement events. May be nil.
type Recorder interface {
	ChapterOpen(mangaID, chapterID string, chapterNumber float64)
	ChapterNavigate(fromChapterID, toChapterID, direction string)
	ChapterComplete(mangaID, chapterID string, durationSeconds int)
}

// session is the transient per-chapter state. Never mutated across
// navigations; Enter always builds a new one.
type session struct {
	mangaID   string
	chapterID string
	chapter   gateway.Chapter
	pages     []gateway.Page
	chapters  []gateway.Chapter // sorted ascending by number
	prev      *gateway.Chapter
	next      *gateway.Chapter
	startedAt time.Time
	completed bool
}

type Controller struct {
	gw      Gateway
	tracker Recorder

	mu    sync.Mutex
	state State
	err   error
	cur   *session
	gen   uint64

	now func() time.Time
}

func NewController(gw Gateway, tracker Recorder) *Controller {
	return &Controller{
		gw:      gw,
		tracker: tracker,
		now:     time.Now,
	}
}

// Enter establishes a session for (mangaID, chapterID). The chapter's pages
// and the full chapter list are fetched concurrently; both must succeed.
// There is no partial session: the first failure is terminal for this
// attempt, and the other request's result is discarded when it arrives.
// A chapter_open event fires exactly once per successful Enter.
func (c *Controller) Enter(ctx context.Context, mangaID, chapterID string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = StateLoading
	c.err = nil
	c.cur = nil
	c.mu.Unlock()

	type chapterResult struct {
		data gateway.ChapterWithPages
		err  error
	}
	type listResult struct {
		chapters []gateway.Chapter
		err      error
	}
	chapterCh := make(chan chapterResult, 1)
	listCh := make(chan listResult, 1)

	go func() {
		data, err := c.gw.GetChapter(ctx, mangaID, chapterID)
		chapterCh <- chapterResult{data: data, err: err}
	}()
	go func() {
		chapters, err := c.gw.ListChapters(ctx, mangaID)
		listCh <- listResult{chapters: chapters, err: err}
	}()

	var withPages gateway.ChapterWithPages
	var chapters []gateway.Chapter
	gotChapter, gotList := false, false
	for !gotChapter || !gotList {
		select {
		case r := <-chapterCh:
			if r.err != nil {
				return c.fail(gen, r.err)
			}
			withPages, gotChapter = r.data, true
		case r := <-listCh:
			if r.err != nil {
				return c.fail(gen, r.err)
			}
			chapters, gotList = r.chapters, true
		}
	}

	// Delivery order from the server is not assumed stable.
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})

	sess := &session{
		mangaID:   mangaID,
		chapterID: chapterID,
		chapter:   withPages.Chapter,
		pages:     withPages.Pages,
		chapters:  chapters,
		startedAt: c.now(),
	}
	for i := range chapters {
		if chapters[i].ID != chapterID {
			continue
		}
		if i > 0 {
			prev := chapters[i-1]
			sess.prev = &prev
		}
		if i < len(chapters)-1 {
			next := chapters[i+1]
			sess.next = &next
		}
		break
	}

	c.mu.Lock()
	if gen != c.gen {
		// A newer Enter superseded this one; its late result is a no-op.
		c.mu.Unlock()
		return nil
	}
	c.state = StateReady
	c.cur = sess
	c.mu.Unlock()

	if c.tracker != nil {
		c.tracker.ChapterOpen(mangaID, chapterID, withPages.Chapter.Number)
	}
	return nil
}

func (c *Controller) fail(gen uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.state = StateFailed
	c.err = err
	c.cur = nil
	return err
}

// Navigate transitions to the adjacent chapter in the given direction,
// emitting chapter_navigate before rebuilding the session via Enter.
func (c *Controller) Navigate(ctx context.Context, direction Direction) error {
	c.mu.Lock()
	if c.state != StateReady || c.cur == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	var target *gateway.Chapter
	switch direction {
	case DirectionPrevious:
		target = c.cur.prev
	case DirectionNext:
		target = c.cur.next
	}
	if target == nil {
		c.mu.Unlock()
		return ErrNoAdjacentChapter
	}
	from := c.cur.chapterID
	mangaID := c.cur.mangaID
	targetID := target.ID
	c.mu.Unlock()

	if c.tracker != nil {
		c.tracker.ChapterNavigate(from, targetID, string(direction))
	}
	return c.Enter(ctx, mangaID, targetID)
}

// MarkLastPageVisible records that the reader reached the chapter's last
// page. The chapter_complete event fires exactly once per session, carrying
// the elapsed seconds since Enter succeeded; re-reaching the last page within
// the same session is a no-op.
func (c *Controller) MarkLastPageVisible() {
	c.mu.Lock()
	if c.state != StateReady || c.cur == nil || c.cur.completed {
		c.mu.Unlock()
		return
	}
	c.cur.completed = true
	mangaID := c.cur.mangaID
	chapterID := c.cur.chapterID
	elapsed := c.now().Sub(c.cur.startedAt)
	c.mu.Unlock()

	if elapsed < 0 {
		elapsed = 0
	}
	if c.tracker != nil {
		c.tracker.ChapterComplete(mangaID, chapterID, int(math.Round(elapsed.Seconds())))
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that put the session into StateFailed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Chapter returns the current chapter; ok is false unless the session is
// ready.
func (c *Controller) Chapter() (gateway.Chapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady || c.cur == nil {
		return gateway.Chapter{}, false
	}
	return c.cur.chapter, true
}

func (c *Controller) Pages() []gateway.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return nil
	}
	out := make([]gateway.Page, len(c.cur.pages))
	copy(out, c.cur.pages)
	return out
}

// Chapters returns the sorted chapter list snapshot of the current session.
func (c *Controller) Chapters() []gateway.Chapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return nil
	}
	out := make([]gateway.Chapter, len(c.cur.chapters))
	copy(out, c.cur.chapters)
	return out
}

// Previous returns the chapter before the current one, or nil at the
// sequence start.
func (c *Controller) Previous() *gateway.Chapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil || c.cur.prev == nil {
		return nil
	}
	prev := *c.cur.prev
	return &prev
}

// Next returns the chapter after the current one, or nil at the sequence end.
func (c *Controller) Next() *gateway.Chapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil || c.cur.next == nil {
		return nil
	}
	next := *c.cur.next
	return &next
}

// ShowChapterComments reports whether the current chapter has a discussion
// surface. Chapters numbered 0 are oneshot/prefatory content and carry none.
// The numeric convention is inherited from observed product behavior.
func (c *Controller) ShowChapterComments() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady && c.cur != nil && c.cur.chapter.Number > 0
}
