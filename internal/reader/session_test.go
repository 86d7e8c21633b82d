package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
)

type fakeArchive struct {
	mu       sync.Mutex
	chapters []gateway.Chapter
	pages    map[string][]gateway.Page

	chapterErr error
	listErr    error

	// blockChapter, when non-nil, is closed to release GetChapter;
	// chapterBlocked receives once per call that hits the block.
	blockChapter   chan struct{}
	chapterBlocked chan struct{}
}

func (f *fakeArchive) GetChapter(_ context.Context, mangaID, chapterID string) (gateway.ChapterWithPages, error) {
	f.mu.Lock()
	block := f.blockChapter
	blocked := f.chapterBlocked
	f.mu.Unlock()
	if block != nil {
		if blocked != nil {
			blocked <- struct{}{}
		}
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chapterErr != nil {
		return gateway.ChapterWithPages{}, f.chapterErr
	}
	for _, ch := range f.chapters {
		if ch.ID == chapterID {
			return gateway.ChapterWithPages{Chapter: ch, Pages: f.pages[chapterID]}, nil
		}
	}
	return gateway.ChapterWithPages{}, errors.New("chapter not found")
}

func (f *fakeArchive) ListChapters(_ context.Context, mangaID string) ([]gateway.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]gateway.Chapter(nil), f.chapters...), nil
}

type event struct {
	name  string
	props map[string]any
}

type eventLog struct {
	mu     sync.Mutex
	events []event
}

func (l *eventLog) add(name string, props map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event{name, props})
}

func (l *eventLog) named(name string) []event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []event
	for _, e := range l.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func (l *eventLog) ChapterOpen(mangaID, chapterID string, chapterNumber float64) {
	l.add("chapter_open", map[string]any{
		"manga_id": mangaID, "chapter_id": chapterID, "chapter_number": chapterNumber,
	})
}

func (l *eventLog) ChapterNavigate(fromChapterID, toChapterID, direction string) {
	l.add("chapter_navigate", map[string]any{
		"from_chapter_id": fromChapterID, "to_chapter_id": toChapterID, "direction": direction,
	})
}

func (l *eventLog) ChapterComplete(mangaID, chapterID string, durationSeconds int) {
	l.add("chapter_complete", map[string]any{
		"manga_id": mangaID, "chapter_id": chapterID, "duration_seconds": durationSeconds,
	})
}

// threeChapters returns c1/c2/c3 numbered 1..3, deliberately out of order to
// exercise the sort on load.
func threeChapters() *fakeArchive {
	return &fakeArchive{
		chapters: []gateway.Chapter{
			{ID: "c3", MangaID: "m1", Number: 3},
			{ID: "c1", MangaID: "m1", Number: 1},
			{ID: "c2", MangaID: "m1", Number: 2},
		},
		pages: map[string][]gateway.Page{
			"c1": {{ID: "p1", Number: 1, URL: "u1"}},
			"c2": {{ID: "p2", Number: 1, URL: "u2"}, {ID: "p3", Number: 2, URL: "u3"}},
			"c3": {{ID: "p4", Number: 1, URL: "u4"}},
		},
	}
}

func TestEnterDerivesAdjacentChapters(t *testing.T) {
	archive := threeChapters()

	cases := []struct {
		chapterID string
		wantPrev  float64
		wantNext  float64
		hasPrev   bool
		hasNext   bool
	}{
		{"c2", 1, 3, true, true},
		{"c1", 0, 2, false, true},
		{"c3", 2, 0, true, false},
	}
	for _, tc := range cases {
		ctrl := NewController(archive, nil)
		require.NoError(t, ctrl.Enter(context.Background(), "m1", tc.chapterID))
		require.Equal(t, StateReady, ctrl.State())

		prev, next := ctrl.Previous(), ctrl.Next()
		if tc.hasPrev {
			require.NotNil(t, prev, "chapter %s", tc.chapterID)
			assert.Equal(t, tc.wantPrev, prev.Number)
		} else {
			assert.Nil(t, prev)
		}
		if tc.hasNext {
			require.NotNil(t, next, "chapter %s", tc.chapterID)
			assert.Equal(t, tc.wantNext, next.Number)
		} else {
			assert.Nil(t, next)
		}
	}
}

func TestEnterEmitsExactlyOneChapterOpen(t *testing.T) {
	archive := threeChapters()
	log := &eventLog{}
	ctrl := NewController(archive, log)

	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c2"))
	assert.Equal(t, StateReady, ctrl.State())

	opens := log.named("chapter_open")
	require.Len(t, opens, 1)
	assert.Equal(t, "m1", opens[0].props["manga_id"])
	assert.Equal(t, "c2", opens[0].props["chapter_id"])
	assert.Equal(t, 2.0, opens[0].props["chapter_number"])
}

func TestEnterFailsOnEitherFetch(t *testing.T) {
	t.Run("chapter fetch fails", func(t *testing.T) {
		archive := threeChapters()
		archive.chapterErr = errors.New("boom")
		ctrl := NewController(archive, &eventLog{})

		err := ctrl.Enter(context.Background(), "m1", "c2")
		assert.Error(t, err)
		assert.Equal(t, StateFailed, ctrl.State())
		assert.Error(t, ctrl.Err())
		_, ok := ctrl.Chapter()
		assert.False(t, ok, "no partial session")
	})

	t.Run("list fetch fails", func(t *testing.T) {
		archive := threeChapters()
		archive.listErr = errors.New("boom")
		log := &eventLog{}
		ctrl := NewController(archive, log)

		assert.Error(t, ctrl.Enter(context.Background(), "m1", "c2"))
		assert.Equal(t, StateFailed, ctrl.State())
		assert.Empty(t, log.named("chapter_open"))
	})
}

func TestNavigateRebuildsSessionAndEmits(t *testing.T) {
	archive := threeChapters()
	log := &eventLog{}
	ctrl := NewController(archive, log)
	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c2"))

	require.NoError(t, ctrl.Navigate(context.Background(), DirectionNext))

	chapter, ok := ctrl.Chapter()
	require.True(t, ok)
	assert.Equal(t, "c3", chapter.ID)

	navs := log.named("chapter_navigate")
	require.Len(t, navs, 1)
	assert.Equal(t, "c2", navs[0].props["from_chapter_id"])
	assert.Equal(t, "c3", navs[0].props["to_chapter_id"])
	assert.Equal(t, "next", navs[0].props["direction"])

	// The rebuilt session fired its own open event.
	assert.Len(t, log.named("chapter_open"), 2)
}

func TestNavigateAtBoundaryIsNoOp(t *testing.T) {
	archive := threeChapters()
	log := &eventLog{}
	ctrl := NewController(archive, log)
	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c3"))

	err := ctrl.Navigate(context.Background(), DirectionNext)
	assert.ErrorIs(t, err, ErrNoAdjacentChapter)
	assert.Equal(t, StateReady, ctrl.State())
	assert.Empty(t, log.named("chapter_navigate"))
}

func TestChapterCompleteFiresOnce(t *testing.T) {
	archive := threeChapters()
	log := &eventLog{}
	ctrl := NewController(archive, log)

	start := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	current := start
	ctrl.now = func() time.Time { return current }

	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c2"))

	current = start.Add(95*time.Second + 400*time.Millisecond)
	ctrl.MarkLastPageVisible()
	ctrl.MarkLastPageVisible()
	ctrl.MarkLastPageVisible()

	completes := log.named("chapter_complete")
	require.Len(t, completes, 1, "scrolling back to the last page must not re-fire")
	assert.Equal(t, 95, completes[0].props["duration_seconds"])
}

func TestChapterCompleteResetsPerSession(t *testing.T) {
	archive := threeChapters()
	log := &eventLog{}
	ctrl := NewController(archive, log)
	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c1"))
	ctrl.MarkLastPageVisible()

	require.NoError(t, ctrl.Navigate(context.Background(), DirectionNext))
	ctrl.MarkLastPageVisible()

	assert.Len(t, log.named("chapter_complete"), 2, "each session completes independently")
}

func TestStaleEnterResultIsDiscarded(t *testing.T) {
	archive := threeChapters()
	archive.blockChapter = make(chan struct{})
	archive.chapterBlocked = make(chan struct{}, 1)
	log := &eventLog{}
	ctrl := NewController(archive, log)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Enter(context.Background(), "m1", "c1")
	}()
	<-archive.chapterBlocked // first enter is in flight and blocked

	// Supersede the blocked Enter with a fresh one.
	archive.mu.Lock()
	release := archive.blockChapter
	archive.blockChapter = nil
	archive.mu.Unlock()
	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c2"))

	close(release)
	require.NoError(t, <-done)

	chapter, ok := ctrl.Chapter()
	require.True(t, ok)
	assert.Equal(t, "c2", chapter.ID, "late first-enter result must not clobber the live session")
	assert.Len(t, log.named("chapter_open"), 1, "superseded enter emits nothing")
}

func TestShowChapterCommentsGatedOnNumber(t *testing.T) {
	archive := &fakeArchive{
		chapters: []gateway.Chapter{
			{ID: "one", MangaID: "m1", Number: 0}, // oneshot
			{ID: "two", MangaID: "m1", Number: 1},
		},
		pages: map[string][]gateway.Page{},
	}
	ctrl := NewController(archive, nil)

	require.NoError(t, ctrl.Enter(context.Background(), "m1", "one"))
	assert.False(t, ctrl.ShowChapterComments())

	require.NoError(t, ctrl.Enter(context.Background(), "m1", "two"))
	assert.True(t, ctrl.ShowChapterComments())
}

func TestChaptersSnapshotIsSorted(t *testing.T) {
	archive := threeChapters()
	ctrl := NewController(archive, nil)
	require.NoError(t, ctrl.Enter(context.Background(), "m1", "c1"))

	chapters := ctrl.Chapters()
	require.Len(t, chapters, 3)
	for i := 1; i < len(chapters); i++ {
		assert.Less(t, chapters[i-1].Number, chapters[i].Number)
	}
}

func TestNavigateWithoutSession(t *testing.T) {
	ctrl := NewController(threeChapters(), nil)
	assert.ErrorIs(t, ctrl.Navigate(context.Background(), DirectionNext), ErrNoSession)
}
