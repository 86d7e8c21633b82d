package tracking

// tracker.go implements fire-and-forget delivery of engagement events to the
// archive's ingestion endpoint. Delivery failures are swallowed: telemetry
// must never surface an error or block a reading action.

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const trackPath = "/api/track"

// Properties is the free-form property bag attached to one event.
type Properties map[string]any

// Envelope is the wire shape of a single tracked event.
type Envelope struct {
	DeviceID   string     `json:"device_id"`
	Event      string     `json:"event"`
	Properties Properties `json:"properties"`
	Referrer   string     `json:"referrer"`
}

type Tracker struct {
	baseURL    string
	httpClient *http.Client
	deviceID   string
	referrer   string
	token      func() string
	limiter    *rate.Limiter
	disabled   bool
	wg         sync.WaitGroup
}

// New builds a tracker posting to baseURL + /api/track, stamping every event
// with deviceID. token supplies the current bearer credential and may be nil
// for anonymous sessions.
func New(baseURL, deviceID string, token func() string) *Tracker {
	return &Tracker{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		deviceID: deviceID,
		referrer: "",
		token:    token,
		// Interactive use emits a handful of events per minute; anything
		// past the cap is dropped rather than queued.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Disable turns the tracker into a no-op. Used when the user opts out.
func (t *Tracker) Disable() {
	if t != nil {
		t.disabled = true
	}
}

// SetReferrer sets the referrer stamped on subsequent envelopes.
func (t *Tracker) SetReferrer(ref string) {
	if t != nil {
		t.referrer = ref
	}
}

// Close waits for in-flight deliveries to finish. Their outcome is still
// ignored; this only keeps the process from exiting mid-request.
func (t *Tracker) Close() {
	if t != nil {
		t.wg.Wait()
	}
}

func (t *Tracker) emit(event string, props Properties) {
	if t == nil || t.disabled {
		return
	}
	if !t.limiter.Allow() {
		return
	}
	if props == nil {
		props = Properties{}
	}
	envelope := Envelope{
		DeviceID:   t.deviceID,
		Event:      event,
		Properties: props,
		Referrer:   t.referrer,
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		body, err := json.Marshal(map[string][]Envelope{"events": {envelope}})
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+trackPath, bytes.NewBuffer(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if t.token != nil {
			if tok := t.token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}
		response, err := t.httpClient.Do(req)
		if err != nil {
			return
		}
		// Status is ignored too; a 4xx/5xx is no more actionable than a
		// network failure here.
		response.Body.Close()
	}()
}

// --- Discovery ---

func (t *Tracker) MangaView(mangaID, mangaType string) {
	t.emit("manga_view", Properties{"manga_id": mangaID, "manga_type": mangaType})
}

func (t *Tracker) Search(query string, filters Properties, resultCount int) {
	if filters == nil {
		filters = Properties{}
	}
	t.emit("search", Properties{"query": query, "filters": filters, "result_count": resultCount})
}

func (t *Tracker) TagClick(tag string) {
	t.emit("tag_click", Properties{"tag": tag})
}

// --- Reading ---

func (t *Tracker) ChapterOpen(mangaID, chapterID string, chapterNumber float64) {
	t.emit("chapter_open", Properties{
		"manga_id":       mangaID,
		"chapter_id":     chapterID,
		"chapter_number": chapterNumber,
	})
}

func (t *Tracker) ChapterComplete(mangaID, chapterID string, durationSeconds int) {
	t.emit("chapter_complete", Properties{
		"manga_id":         mangaID,
		"chapter_id":       chapterID,
		"duration_seconds": durationSeconds,
	})
}

func (t *Tracker) ChapterNavigate(fromChapterID, toChapterID, direction string) {
	t.emit("chapter_navigate", Properties{
		"from_chapter_id": fromChapterID,
		"to_chapter_id":   toChapterID,
		"direction":       direction,
	})
}

// --- Social ---

// CommentPost reports a posted comment. chapterID is empty for manga-level
// comments and omitted from the properties in that case.
func (t *Tracker) CommentPost(mangaID, chapterID string, contentLength int) {
	props := Properties{"manga_id": mangaID, "content_length": contentLength}
	if chapterID != "" {
		props["chapter_id"] = chapterID
	}
	t.emit("comment_post", props)
}

// --- Library ---

func (t *Tracker) BookmarkAdd(mangaID string) {
	t.emit("bookmark_add", Properties{"manga_id": mangaID})
}

func (t *Tracker) BookmarkRemove(mangaID string) {
	t.emit("bookmark_remove", Properties{"manga_id": mangaID})
}

// --- Auth ---

func (t *Tracker) Signup() { t.emit("signup", nil) }

func (t *Tracker) Login() { t.emit("login", nil) }
