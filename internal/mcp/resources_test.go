package mcp

import (
	"context"
	"net/http"
	"testing"

	"wpmcp/internal/wordpress"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePostByID(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts/42", r.URL.Path)
		writeJSON(t, w, http.StatusOK, wpPost(42, "Hello World", "<p>Body</p>", "publish", "hello-world"))
	})

	contents, err := srv.handlePostByID(context.Background(), resourceRequest("post://by-id/42"))
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "post://by-id/42", text.URI)
	assert.Equal(t, "text/plain", text.MIMEType)
	assert.Contains(t, text.Text, "Post ID: 42\n")
	assert.Contains(t, text.Text, "Title: Hello World\n")
	assert.Contains(t, text.Text, "Status: publish\n")
	assert.Contains(t, text.Text, "Slug: hello-world\n")
	assert.Contains(t, text.Text, "Link: https://example.com/hello-world\n")
	assert.Contains(t, text.Text, "\nContent:\n")
}

func TestHandlePostByIDEncodedURI(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts/42", r.URL.Path)
		writeJSON(t, w, http.StatusOK, wpPost(42, "Hello", "Body", "publish", "hello"))
	})

	contents, err := srv.handlePostByID(context.Background(), resourceRequest("post://by-id/%34%32"))
	require.NoError(t, err)
	require.Len(t, contents, 1)
}

func TestHandlePostBySlugUnicode(t *testing.T) {
	var gotSlug string
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotSlug = r.URL.Query().Get("slug")
		writeJSON(t, w, http.StatusOK, []any{
			wpPost(7, "Café", "<p>Body</p>", "publish", "café"),
		})
	})

	contents, err := srv.handlePostBySlug(context.Background(), resourceRequest("post://by-slug/caf%C3%A9"))
	require.NoError(t, err)
	require.Len(t, contents, 1)

	assert.Equal(t, "café", gotSlug, "percent-encoded slug must reach the site decoded")
}

func TestHandlePostByIDBadURI(t *testing.T) {
	srv, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should reach the site for a malformed URI")
	})

	_, err := srv.handlePostByID(context.Background(), resourceRequest("post://by-id/not-a-number"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid post id")
	assert.Equal(t, int64(0), requests.Load())
}

func TestHandlePostByIDNotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"code":    "rest_post_invalid_id",
			"message": "Invalid post ID.",
		})
	})

	_, err := srv.handlePostByID(context.Background(), resourceRequest("post://by-id/9999"))
	require.Error(t, err)
	assert.True(t, wordpress.IsNotFound(err))
}

func TestHandlePostBySlug(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		require.Equal(t, "hello-world", r.URL.Query().Get("slug"))
		writeJSON(t, w, http.StatusOK, []any{
			wpPost(42, "Hello World", "<p>Body</p>", "publish", "hello-world"),
		})
	})

	contents, err := srv.handlePostBySlug(context.Background(), resourceRequest("post://by-slug/hello-world"))
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "post://by-slug/hello-world", text.URI)
	assert.Contains(t, text.Text, "Post ID: 42\n")
	assert.Contains(t, text.Text, "Slug: hello-world\n")
}

func TestHandlePostBySlugEmpty(t *testing.T) {
	srv, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should reach the site for an empty slug")
	})

	_, err := srv.handlePostBySlug(context.Background(), resourceRequest("post://by-slug/"))
	require.Error(t, err)
	assert.Equal(t, int64(0), requests.Load())
}

func TestHandlePostBySlugNotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []any{})
	})

	_, err := srv.handlePostBySlug(context.Background(), resourceRequest("post://by-slug/ghost"))
	require.Error(t, err)
	assert.True(t, wordpress.IsNotFound(err))
}
