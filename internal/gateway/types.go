package gateway

import "time"

// Response structures mirroring the sherry-archive API. Every endpoint wraps
// its payload in {"data": ...} and errors in {"error": "..."}.

type Manga struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter numbers are fractional so chapters can be inserted between
// existing ones (e.g. 10.5). Number 0 is reserved for oneshots.
type Chapter struct {
	ID        string    `json:"id"`
	MangaID   string    `json:"manga_id"`
	Number    float64   `json:"number"`
	Title     string    `json:"title"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Page struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ChapterWithPages struct {
	Chapter Chapter `json:"chapter"`
	Pages   []Page  `json:"pages"`
}

type CommentAuthor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Comment struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Author    CommentAuthor `json:"author"`
	Edited    bool          `json:"edited"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PagedComments is one page-window of a comment collection. Total counts
// every comment in the scope, not just the current page.
type PagedComments struct {
	Items []Comment `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type PagedMangas struct {
	Items []Manga `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type Bookmark struct {
	ID             string    `json:"id"`
	MangaID        string    `json:"manga_id"`
	ChapterID      string    `json:"chapter_id"`
	LastPageNumber int       `json:"last_page_number"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Scope identifies which comment collection a comment belongs to: the manga
// itself, or one chapter within it. A comment never moves between scopes.
type Scope struct {
	MangaID   string
	ChapterID string // empty for manga-level comments
}

// IsChapter reports whether the scope targets a chapter comment collection.
func (s Scope) IsChapter() bool { return s.ChapterID != "" }
