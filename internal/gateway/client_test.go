package gateway_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YumikoKawaii/sherry-archive/internal/archivetest"
	"github.com/YumikoKawaii/sherry-archive/internal/gateway"
)

func newTestClient(t *testing.T) (*archivetest.Server, *gateway.Client) {
	t.Helper()
	server := archivetest.New()
	t.Cleanup(server.Close)
	return server, gateway.NewClient(server.URL(), 5*time.Second)
}

func TestGetMangaDecodesEnvelope(t *testing.T) {
	server, client := newTestClient(t)
	server.Mangas = []gateway.Manga{
		{ID: "m1", Title: "Sherry", Tags: []string{"drama"}},
	}

	manga, err := client.GetManga(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Sherry", manga.Title)
	assert.Equal(t, []string{"drama"}, manga.Tags)
}

func TestNotFoundSurfacesAPIError(t *testing.T) {
	_, client := newTestClient(t)

	_, err := client.GetManga(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, gateway.IsNotFound(err))
	assert.Contains(t, err.Error(), "manga not found")
}

func TestBearerTokenGatesProtectedEndpoints(t *testing.T) {
	server, client := newTestClient(t)

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, gateway.IsUnauthorized(err))

	client.SetToken(server.Token)
	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
}

func TestLoginReturnsToken(t *testing.T) {
	server, client := newTestClient(t)

	resp, err := client.Login(context.Background(), "reader", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, server.Token, resp.AccessToken)
	assert.Equal(t, "reader", resp.User.Username)
}

func TestListMangasFilters(t *testing.T) {
	server, client := newTestClient(t)
	server.Mangas = []gateway.Manga{
		{ID: "m1", Title: "Sherry Archive", Tags: []string{"drama"}},
		{ID: "m2", Title: "Other", Tags: []string{"action"}},
	}

	page, err := client.ListMangas(context.Background(), gateway.MangaFilter{Query: "sherry"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "m1", page.Items[0].ID)

	page, err = client.ListMangas(context.Background(), gateway.MangaFilter{Tag: "action"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "m2", page.Items[0].ID)
}

func TestGetChapterIncludesPages(t *testing.T) {
	server, client := newTestClient(t)
	server.Chapters["m1"] = []gateway.Chapter{{ID: "c1", MangaID: "m1", Number: 1}}
	server.Pages["c1"] = []gateway.Page{
		{ID: "p1", Number: 1, URL: "u1"},
		{ID: "p2", Number: 2, URL: "u2"},
	}

	chapter, err := client.GetChapter(context.Background(), "m1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, chapter.Chapter.Number)
	require.Len(t, chapter.Pages, 2)
	assert.Equal(t, "u2", chapter.Pages[1].URL)
}

func TestCommentPagination(t *testing.T) {
	server, client := newTestClient(t)
	scope := gateway.Scope{MangaID: "m1", ChapterID: "c1"}
	key := archivetest.ScopeKey(scope)
	for i := 0; i < 45; i++ {
		server.Comments[key] = append(server.Comments[key], gateway.Comment{
			ID: fmt.Sprintf("seed-%d", i), Content: "hi",
		})
	}

	page, err := client.ListComments(context.Background(), scope, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.Equal(t, 45, page.Total)

	page, err = client.ListComments(context.Background(), scope, 3, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.Page)

	page, err = client.ListComments(context.Background(), scope, 4, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestCommentLifecycle(t *testing.T) {
	server, client := newTestClient(t)
	client.SetToken(server.Token)
	scope := gateway.Scope{MangaID: "m1", ChapterID: "c1"}

	created, err := client.CreateComment(context.Background(), scope, "first!")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.Author.ID)

	updated, err := client.UpdateComment(context.Background(), "m1", created.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.True(t, updated.Edited)

	require.NoError(t, client.DeleteComment(context.Background(), "m1", created.ID))

	page, err := client.ListComments(context.Background(), scope, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestBookmarksRoundTrip(t *testing.T) {
	server, client := newTestClient(t)
	client.SetToken(server.Token)

	bookmark, err := client.AddBookmark(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", bookmark.MangaID)

	list, err := client.ListBookmarks(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, client.RemoveBookmark(context.Background(), "m1"))
	list, err = client.ListBookmarks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestForcedFailureCarriesStatus(t *testing.T) {
	server, client := newTestClient(t)
	server.FailNext("comments.list", 500)

	_, err := client.ListComments(context.Background(), gateway.Scope{MangaID: "m1"}, 1, 20)
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)
}
