package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"wpmcp/internal/wordpress"

	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URI schemes for post lookups.
const (
	resourceByIDPrefix   = "post://by-id/"
	resourceBySlugPrefix = "post://by-slug/"
)

// registerResources declares the two read-only post accessors. Resolution is
// idempotent: each read is a fresh round trip reflecting the site's current
// state.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourceByIDPrefix+"{post_id}",
			"Post by ID",
			mcp.WithTemplateDescription("Get a WordPress post by its ID"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.handlePostByID,
	)

	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourceBySlugPrefix+"{slug}",
			"Post by slug",
			mcp.WithTemplateDescription("Get a WordPress post by its slug"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.handlePostBySlug,
	)
}

// handlePostByID resolves post://by-id/{post_id}.
func (s *Server) handlePostByID(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Hosts may percent-encode URI template variables.
	raw, err := url.PathUnescape(strings.TrimPrefix(request.Params.URI, resourceByIDPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid post id in resource URI %q", request.Params.URI)
	}
	postID, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid post id %q in resource URI", raw)
	}

	post, err := s.client.GetPostByID(ctx, postID)
	if err != nil {
		s.logger.Warn("Resource lookup by id failed", "post_id", postID, "error", err)
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     formatPost(post),
		},
	}, nil
}

// handlePostBySlug resolves post://by-slug/{slug}.
func (s *Server) handlePostBySlug(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Decode before querying: the client escapes the slug itself, so a
	// percent-encoded segment passed through raw would be double-encoded.
	slug, err := url.PathUnescape(strings.TrimPrefix(request.Params.URI, resourceBySlugPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid slug in resource URI %q", request.Params.URI)
	}
	if slug == "" {
		return nil, fmt.Errorf("missing slug in resource URI %q", request.Params.URI)
	}

	post, err := s.client.GetPostBySlug(ctx, slug)
	if err != nil {
		s.logger.Warn("Resource lookup by slug failed", "slug", slug, "error", err)
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     formatPost(post),
		},
	}, nil
}

// formatPost renders a post as the plain-text block resources return.
func formatPost(post *wordpress.Post) string {
	return fmt.Sprintf(`Post ID: %d
Title: %s
Status: %s
Date: %s
Modified: %s
Slug: %s
Link: %s

Content:
%s`, post.ID, post.Title, post.Status, post.Date, post.Modified, post.Slug, post.Link, post.Content)
}
