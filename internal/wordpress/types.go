package wordpress

import (
	"fmt"
	"strings"
)

// Post statuses accepted by the posts endpoint.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
	StatusPending = "pending"
	StatusPrivate = "private"
	StatusFuture  = "future"

	// DefaultStatus is applied when a create request leaves status empty.
	DefaultStatus = StatusDraft
)

// PostStatuses lists the accepted status values in declaration order,
// for parameter schemas and error messages.
var PostStatuses = []string{StatusDraft, StatusPublish, StatusPending, StatusPrivate, StatusFuture}

// ValidStatus reports whether s is one of the accepted post statuses.
func ValidStatus(s string) bool {
	for _, v := range PostStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Post is the flattened view of a WordPress post handed to callers. Title and
// Content arrive from the API as rendered objects and are collapsed to plain
// strings here. Date and Modified are the site-local timestamp strings the API
// returns, passed through verbatim.
type Post struct {
	ID       int
	Title    string
	Content  string
	Status   string
	Slug     string
	Link     string
	Date     string
	Modified string
}

// CreatePostParams carries the caller-supplied fields for a new post.
type CreatePostParams struct {
	Title   string
	Content string // may contain HTML markup
	Status  string // empty defaults to DefaultStatus
}

// Validate checks the params against the posts endpoint's constraints.
// A nil return guarantees the params are safe to send.
func (p *CreatePostParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if p.Status != "" && !ValidStatus(p.Status) {
		return &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("%q is not one of %s", p.Status, strings.Join(PostStatuses, ", ")),
		}
	}
	return nil
}

// DeleteResult reports the outcome of a delete call. Deleted is true only
// when the site confirmed permanent removal; a trashed post still exists.
// PreviousStatus comes from previous.status on a permanent delete, or from
// the trashed post object's status field on a trash move.
type DeleteResult struct {
	ID             int
	Deleted        bool
	PreviousStatus string
}

// renderedText matches the {"rendered": "..."} objects the API uses for
// title and content fields.
type renderedText struct {
	Rendered string `json:"rendered"`
}

// postPayload matches the subset of the posts endpoint's response schema
// this client surfaces.
type postPayload struct {
	ID       int          `json:"id"`
	Date     string       `json:"date"`
	Modified string       `json:"modified"`
	Slug     string       `json:"slug"`
	Status   string       `json:"status"`
	Link     string       `json:"link"`
	Title    renderedText `json:"title"`
	Content  renderedText `json:"content"`
}

func (p *postPayload) toPost() *Post {
	return &Post{
		ID:       p.ID,
		Title:    p.Title.Rendered,
		Content:  p.Content.Rendered,
		Status:   p.Status,
		Slug:     p.Slug,
		Link:     p.Link,
		Date:     p.Date,
		Modified: p.Modified,
	}
}

// deletePayload matches both shapes a DELETE can answer with: a permanent
// delete returns {"deleted": true, "previous": {...}}, a trash move returns
// the trashed post object itself.
type deletePayload struct {
	Deleted  bool         `json:"deleted"`
	Previous *postPayload `json:"previous"`

	ID     int    `json:"id"`
	Status string `json:"status"`
}

// errorPayload matches the REST API's error body, e.g.
// {"code":"rest_post_invalid_id","message":"Invalid post ID.","data":{"status":404}}.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
