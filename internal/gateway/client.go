package gateway

// client.go implements the HTTP client for the sherry-archive API. All
// versioned endpoints live under /api/v1 and wrap payloads in a
// {"data": ...} envelope; failures carry {"error": "..."}.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const apiPrefix = "/api/v1"

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient builds a client for the archive server at baseURL
// (scheme://host[:port], no trailing path).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken sets the bearer credential attached to subsequent requests.
// An empty token simply omits the Authorization header; the server answers
// protected endpoints with 401 and that surfaces as a regular APIError.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the currently attached bearer credential.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiErr := &APIError{Status: response.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(envelope.Data, out)
}

// --- Auth ---

func (c *Client) Register(ctx context.Context, username, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}

// --- Mangas ---

// MangaFilter narrows ListMangas. Zero values are omitted from the query.
type MangaFilter struct {
	Query string
	Tag   string
	Page  int
	Limit int
}

func (c *Client) ListMangas(ctx context.Context, filter MangaFilter) (PagedMangas, error) {
	q := url.Values{}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.Tag != "" {
		q.Set("tag", filter.Tag)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	path := "/mangas"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out PagedMangas
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) GetManga(ctx context.Context, mangaID string) (Manga, error) {
	var out Manga
	err := c.do(ctx, http.MethodGet, "/mangas/"+mangaID, nil, &out)
	return out, err
}

// --- Chapters ---

func (c *Client) ListChapters(ctx context.Context, mangaID string) ([]Chapter, error) {
	var out []Chapter
	err := c.do(ctx, http.MethodGet, "/mangas/"+mangaID+"/chapters", nil, &out)
	return out, err
}

func (c *Client) GetChapter(ctx context.Context, mangaID, chapterID string) (ChapterWithPages, error) {
	var out ChapterWithPages
	err := c.do(ctx, http.MethodGet, "/mangas/"+mangaID+"/chapters/"+chapterID, nil, &out)
	return out, err
}

// --- Comments ---

func commentsPath(scope Scope) string {
	if scope.IsChapter() {
		return "/mangas/" + scope.MangaID + "/chapters/" + scope.ChapterID + "/comments"
	}
	return "/mangas/" + scope.MangaID + "/comments"
}

func (c *Client) ListComments(ctx context.Context, scope Scope, page, limit int) (PagedComments, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := commentsPath(scope)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out PagedComments
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, scope Scope, content string) (Comment, error) {
	var out Comment
	err := c.do(ctx, http.MethodPost, commentsPath(scope), map[string]string{
		"content": content,
	}, &out)
	return out, err
}

// UpdateComment edits an existing comment. Comments are addressed at the
// manga level regardless of the scope that produced them.
func (c *Client) UpdateComment(ctx context.Context, mangaID, commentID, content string) (Comment, error) {
	var out Comment
	err := c.do(ctx, http.MethodPatch, "/mangas/"+mangaID+"/comments/"+commentID, map[string]string{
		"content": content,
	}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, mangaID, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/mangas/"+mangaID+"/comments/"+commentID, nil, nil)
}

// --- Bookmarks ---

func (c *Client) ListBookmarks(ctx context.Context) ([]Bookmark, error) {
	var out []Bookmark
	err := c.do(ctx, http.MethodGet, "/users/me/bookmarks", nil, &out)
	return out, err
}

func (c *Client) AddBookmark(ctx context.Context, mangaID string) (Bookmark, error) {
	var out Bookmark
	err := c.do(ctx, http.MethodPost, "/users/me/bookmarks", map[string]string{
		"manga_id": mangaID,
	}, &out)
	return out, err
}

func (c *Client) RemoveBookmark(ctx context.Context, mangaID string) error {
	return c.do(ctx, http.MethodDelete, "/users/me/bookmarks/"+mangaID, nil, nil)
}
