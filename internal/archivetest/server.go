package archivetest

// archivetest provides an in-process fake of the sherry-archive API for
// tests: same routes, same {"data"}/{"error"} envelopes, in-memory data.

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
	"github.com/YumikoKawaii/sherry-archive/internal/tracking"
)

const defaultLimit = 20

// Server is a fake archive backend. Seed the exported fields before issuing
// requests; everything is guarded by Mu for tests that assert concurrently.
type Server struct {
	Mu sync.Mutex

	Token string // accepted bearer token; empty accepts anything
	User  gateway.User

	Mangas   []gateway.Manga
	Chapters map[string][]gateway.Chapter          // mangaID -> chapters
	Pages    map[string][]gateway.Page             // chapterID -> pages
	Comments map[string][]gateway.Comment          // scope key -> newest first
	Bookmark map[string]gateway.Bookmark           // mangaID -> bookmark
	Events   []tracking.Envelope                   // everything posted to /api/track
	Fail     map[string]int                        // route tag -> HTTP status to force

	nextID int

	httpServer *httptest.Server
}

// New starts the fake server. Callers must Close it.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		Chapters: map[string][]gateway.Chapter{},
		Pages:    map[string][]gateway.Page{},
		Comments: map[string][]gateway.Comment{},
		Bookmark: map[string]gateway.Bookmark{},
		Fail:     map[string]int{},
		User:     gateway.User{ID: "u1", Username: "reader"},
		Token:    "test-token",
	}
	s.httpServer = httptest.NewServer(s.router())
	return s
}

func (s *Server) URL() string { return s.httpServer.URL }

func (s *Server) Close() { s.httpServer.Close() }

// ScopeKey is the comment-map key for a scope.
func ScopeKey(scope gateway.Scope) string {
	if scope.IsChapter() {
		return scope.MangaID + "/" + scope.ChapterID
	}
	return scope.MangaID
}

// FailNext forces the next matching route (by tag: "comments.list",
// "comments.create", "comments.update", "comments.delete", "chapter.get",
// "chapter.list", "track") to answer with the given status once.
func (s *Server) FailNext(tag string, status int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Fail[tag] = status
}

func (s *Server) failed(c *gin.Context, tag string) bool {
	s.Mu.Lock()
	status, ok := s.Fail[tag]
	if ok {
		delete(s.Fail, tag)
	}
	s.Mu.Unlock()
	if !ok {
		return false
	}
	c.JSON(status, gin.H{"error": fmt.Sprintf("forced %s failure", tag)})
	return true
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *Server) authorized(c *gin.Context) bool {
	s.Mu.Lock()
	want := s.Token
	s.Mu.Unlock()
	if want == "" {
		return true
	}
	if c.GetHeader("Authorization") != "Bearer "+want {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return false
	}
	return true
}

func data(c *gin.Context, status int, payload any) {
	c.JSON(status, gin.H{"data": payload})
}

func (s *Server) router() *gin.Engine {
	r := gin.New()

	r.POST("/api/track", func(c *gin.Context) {
		if s.failed(c, "track") {
			return
		}
		var body struct {
			Events []tracking.Envelope `json:"events"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad envelope"})
			return
		}
		s.Mu.Lock()
		s.Events = append(s.Events, body.Events...)
		s.Mu.Unlock()
		c.Status(http.StatusAccepted)
	})

	v1 := r.Group("/api/v1")

	v1.POST("/auth/register", s.handleAuth)
	v1.POST("/auth/login", s.handleAuth)
	v1.GET("/auth/me", func(c *gin.Context) {
		if !s.authorized(c) {
			return
		}
		s.Mu.Lock()
		user := s.User
		s.Mu.Unlock()
		data(c, http.StatusOK, user)
	})

	v1.GET("/mangas", func(c *gin.Context) {
		s.Mu.Lock()
		items := append([]gateway.Manga(nil), s.Mangas...)
		s.Mu.Unlock()
		if q := c.Query("q"); q != "" {
			items = filterMangas(items, func(m gateway.Manga) bool { return contains(m.Title, q) })
		}
		if tag := c.Query("tag"); tag != "" {
			items = filterMangas(items, func(m gateway.Manga) bool { return hasTag(m.Tags, tag) })
		}
		data(c, http.StatusOK, gateway.PagedMangas{
			Items: items, Total: len(items), Page: 1, Limit: defaultLimit,
		})
	})

	v1.GET("/mangas/:mangaID", func(c *gin.Context) {
		s.Mu.Lock()
		defer s.Mu.Unlock()
		for _, m := range s.Mangas {
			if m.ID == c.Param("mangaID") {
				data(c, http.StatusOK, m)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
	})

	v1.GET("/mangas/:mangaID/chapters", func(c *gin.Context) {
		if s.failed(c, "chapter.list") {
			return
		}
		s.Mu.Lock()
		chapters := append([]gateway.Chapter(nil), s.Chapters[c.Param("mangaID")]...)
		s.Mu.Unlock()
		data(c, http.StatusOK, chapters)
	})

	v1.GET("/mangas/:mangaID/chapters/:chapterID", func(c *gin.Context) {
		if s.failed(c, "chapter.get") {
			return
		}
		s.Mu.Lock()
		defer s.Mu.Unlock()
		for _, ch := range s.Chapters[c.Param("mangaID")] {
			if ch.ID == c.Param("chapterID") {
				data(c, http.StatusOK, gateway.ChapterWithPages{
					Chapter: ch,
					Pages:   s.Pages[ch.ID],
				})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
	})

	v1.GET("/mangas/:mangaID/comments", func(c *gin.Context) {
		s.listComments(c, gateway.Scope{MangaID: c.Param("mangaID")})
	})
	v1.GET("/mangas/:mangaID/chapters/:chapterID/comments", func(c *gin.Context) {
		s.listComments(c, gateway.Scope{MangaID: c.Param("mangaID"), ChapterID: c.Param("chapterID")})
	})
	v1.POST("/mangas/:mangaID/comments", func(c *gin.Context) {
		s.createComment(c, gateway.Scope{MangaID: c.Param("mangaID")})
	})
	v1.POST("/mangas/:mangaID/chapters/:chapterID/comments", func(c *gin.Context) {
		s.createComment(c, gateway.Scope{MangaID: c.Param("mangaID"), ChapterID: c.Param("chapterID")})
	})

	v1.PATCH("/mangas/:mangaID/comments/:commentID", func(c *gin.Context) {
		if s.failed(c, "comments.update") || !s.authorized(c) {
			return
		}
		var req struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content required"})
			return
		}
		s.Mu.Lock()
		defer s.Mu.Unlock()
		for key, comments := range s.Comments {
			for i := range comments {
				if comments[i].ID != c.Param("commentID") {
					continue
				}
				comments[i].Content = req.Content
				comments[i].Edited = true
				comments[i].UpdatedAt = time.Now().UTC()
				s.Comments[key] = comments
				data(c, http.StatusOK, comments[i])
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
	})

	v1.DELETE("/mangas/:mangaID/comments/:commentID", func(c *gin.Context) {
		if s.failed(c, "comments.delete") || !s.authorized(c) {
			return
		}
		s.Mu.Lock()
		defer s.Mu.Unlock()
		for key, comments := range s.Comments {
			for i := range comments {
				if comments[i].ID != c.Param("commentID") {
					continue
				}
				s.Comments[key] = append(comments[:i], comments[i+1:]...)
				c.Status(http.StatusNoContent)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
	})

	v1.GET("/users/me/bookmarks", func(c *gin.Context) {
		if !s.authorized(c) {
			return
		}
		s.Mu.Lock()
		defer s.Mu.Unlock()
		out := make([]gateway.Bookmark, 0, len(s.Bookmark))
		for _, b := range s.Bookmark {
			out = append(out, b)
		}
		data(c, http.StatusOK, out)
	})
	v1.POST("/users/me/bookmarks", func(c *gin.Context) {
		if !s.authorized(c) {
			return
		}
		var req struct {
			MangaID string `json:"manga_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.MangaID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
			return
		}
		s.Mu.Lock()
		defer s.Mu.Unlock()
		b := gateway.Bookmark{
			ID:        s.newID("bm"),
			MangaID:   req.MangaID,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		s.Bookmark[req.MangaID] = b
		data(c, http.StatusCreated, b)
	})
	v1.DELETE("/users/me/bookmarks/:mangaID", func(c *gin.Context) {
		if !s.authorized(c) {
			return
		}
		s.Mu.Lock()
		defer s.Mu.Unlock()
		delete(s.Bookmark, c.Param("mangaID"))
		c.Status(http.StatusNoContent)
	})

	return r
}

func (s *Server) handleAuth(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	s.Mu.Lock()
	resp := gateway.AuthResponse{
		AccessToken:  s.Token,
		RefreshToken: "refresh-" + s.Token,
		User:         s.User,
	}
	s.Mu.Unlock()
	data(c, http.StatusOK, resp)
}

func (s *Server) listComments(c *gin.Context, scope gateway.Scope) {
	if s.failed(c, "comments.list") {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}

	s.Mu.Lock()
	all := append([]gateway.Comment(nil), s.Comments[ScopeKey(scope)]...)
	s.Mu.Unlock()

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	data(c, http.StatusOK, gateway.PagedComments{
		Items: all[start:end],
		Total: len(all),
		Page:  page,
		Limit: limit,
	})
}

func (s *Server) createComment(c *gin.Context, scope gateway.Scope) {
	if s.failed(c, "comments.create") || !s.authorized(c) {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content required"})
		return
	}
	s.Mu.Lock()
	defer s.Mu.Unlock()
	comment := gateway.Comment{
		ID:      s.newID("c"),
		Content: req.Content,
		Author: gateway.CommentAuthor{
			ID:       s.User.ID,
			Username: s.User.Username,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	key := ScopeKey(scope)
	s.Comments[key] = append([]gateway.Comment{comment}, s.Comments[key]...)
	data(c, http.StatusCreated, comment)
}

func filterMangas(in []gateway.Manga, keep func(gateway.Manga) bool) []gateway.Manga {
	out := in[:0]
	for _, m := range in {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
