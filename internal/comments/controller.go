package comments

// controller.go manages one page-window of a remote comment collection with
// optimistic local reconciliation: successful mutations patch the window in
// place (prepend/replace/splice) using the canonical comment returned by the
// server, and the next explicit Load is authoritative again.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
)

const (
	// DefaultLimit applies when the server window omits pagination metadata.
	DefaultLimit = 20

	// MaxContentLength bounds a comment body, in code points.
	MaxContentLength = 2000
)

var (
	ErrEmptyContent   = errors.New("comment must not be empty")
	ErrContentTooLong = fmt.Errorf("comment must be at most %d characters", MaxContentLength)
	ErrInvalidPage    = errors.New("page must be 1 or greater")
)

// Gateway is the remote comment store consumed by the controller.
type Gateway interface {
	ListComments(ctx context.Context, scope gateway.Scope, page, limit int) (gateway.PagedComments, error)
	CreateComment(ctx context.Context, scope gateway.Scope, content string) (gateway.Comment, error)
	UpdateComment(ctx context.Context, mangaID, commentID, content string) (gateway.Comment, error)
	DeleteComment(ctx context.Context, mangaID, commentID string) error
}

// Recorder receives the comment_post engagement event. May be nil.
type Recorder interface {
	CommentPost(mangaID, chapterID string, contentLength int)
}

// Controller owns one scope's comment window. All state transitions happen
// under a single mutex; overlapping mutations are not serialized against each
// other, so the last response to arrive wins locally (acceptable: only a
// comment's author edits it, and one author does not race their own edits).
type Controller struct {
	gw      Gateway
	tracker Recorder

	mu        sync.Mutex
	scope     gateway.Scope
	items     []gateway.Comment
	total     int
	page      int
	limit     int
	baseLimit int
	editingID string
}

func NewController(gw Gateway, tracker Recorder, scope gateway.Scope) *Controller {
	return &Controller{
		gw:        gw,
		tracker:   tracker,
		scope:     scope,
		limit:     DefaultLimit,
		baseLimit: DefaultLimit,
	}
}

// SetLimit overrides the page size requested from the server. Values below 1
// are ignored. The override survives scope switches.
func (c *Controller) SetLimit(limit int) {
	if limit < 1 {
		return
	}
	c.mu.Lock()
	c.limit = limit
	c.baseLimit = limit
	c.mu.Unlock()
}

// validateContent trims the body and enforces the local preconditions shared
// by Create and Update. The trimmed form is what gets submitted.
func validateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return trimmed, nil
}

// Load fetches one page for the active scope and replaces the window. On
// failure the prior window stays untouched: stale-but-valid beats a blank
// view.
func (c *Controller) Load(ctx context.Context, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	c.mu.Lock()
	scope := c.scope
	limit := c.limit
	c.mu.Unlock()

	window, err := c.gw.ListComments(ctx, scope, page, limit)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if scope != c.scope {
		// Scope switched while the request was in flight; this window
		// belongs to the old collection.
		return nil
	}
	c.items = window.Items
	c.total = window.Total
	c.page = page
	if window.Limit > 0 {
		c.limit = window.Limit
	} else {
		c.limit = c.baseLimit
	}
	return nil
}

// SwitchScope points the controller at a different comment collection,
// discards the old window and cursor, and loads page 1.
func (c *Controller) SwitchScope(ctx context.Context, scope gateway.Scope) error {
	c.mu.Lock()
	c.scope = scope
	c.items = nil
	c.total = 0
	c.page = 0
	c.limit = c.baseLimit
	c.editingID = ""
	c.mu.Unlock()
	return c.Load(ctx, 1)
}

// Create validates and posts a new comment. The canonical comment returned by
// the server is prepended and total bumped without a re-fetch, so the window
// may transiently hold limit+1 items until the next Load.
func (c *Controller) Create(ctx context.Context, content string) (gateway.Comment, error) {
	trimmed, err := validateContent(content)
	if err != nil {
		return gateway.Comment{}, err
	}

	c.mu.Lock()
	scope := c.scope
	c.mu.Unlock()

	comment, err := c.gw.CreateComment(ctx, scope, trimmed)
	if err != nil {
		// Local state untouched; the caller keeps the input for retry.
		return gateway.Comment{}, fmt.Errorf("post comment: %w", err)
	}

	c.mu.Lock()
	if scope == c.scope {
		c.items = append([]gateway.Comment{comment}, c.items...)
		c.total++
	}
	c.mu.Unlock()

	if c.tracker != nil {
		c.tracker.CommentPost(scope.MangaID, scope.ChapterID, utf8.RuneCountInString(trimmed))
	}
	return comment, nil
}

// StartEdit puts one comment into edit mode. Only one comment can be edited
// at a time; switching targets abandons the prior edit without saving.
func (c *Controller) StartEdit(commentID string) {
	c.mu.Lock()
	c.editingID = commentID
	c.mu.Unlock()
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editingID = ""
	c.mu.Unlock()
}

// EditingID returns the id of the comment in edit mode, or "".
func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// Update replaces a comment's content. On success the canonical comment
// (edited=true) replaces the item in place, keeping its position, and edit
// mode exits. On failure edit mode stays active so the user can retry.
func (c *Controller) Update(ctx context.Context, commentID, content string) (gateway.Comment, error) {
	trimmed, err := validateContent(content)
	if err != nil {
		return gateway.Comment{}, err
	}

	c.mu.Lock()
	mangaID := c.scope.MangaID
	c.mu.Unlock()

	updated, err := c.gw.UpdateComment(ctx, mangaID, commentID, trimmed)
	if err != nil {
		return gateway.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == commentID {
			c.items[i] = updated
			break
		}
	}
	if c.editingID == commentID {
		c.editingID = ""
	}
	c.mu.Unlock()
	return updated, nil
}

// Delete removes a comment. Failures are swallowed: deletion is low-stakes
// and the user can simply re-issue it. Flagged for product review.
func (c *Controller) Delete(ctx context.Context, commentID string) {
	c.mu.Lock()
	mangaID := c.scope.MangaID
	c.mu.Unlock()

	if err := c.gw.DeleteComment(ctx, mangaID, commentID); err != nil {
		return
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == commentID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.total--
			break
		}
	}
	if c.editingID == commentID {
		c.editingID = ""
	}
	c.mu.Unlock()
}

// Items returns a copy of the current window.
func (c *Controller) Items() []gateway.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gateway.Comment, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) Scope() gateway.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Controller) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit
}

// TotalPages derives the page count from the authoritative total.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	limit := c.limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return (c.total + limit - 1) / limit
}
