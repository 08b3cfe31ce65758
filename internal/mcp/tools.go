package mcp

import (
	"context"
	"fmt"

	"wpmcp/internal/wordpress"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools declares the two write operations. Parameter schemas mirror
// the client-side validation in internal/wordpress, so well-behaved clients
// never trigger a ValidationError.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("create_post",
			mcp.WithDescription("Create a new WordPress post"),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("The title of the post"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The content of the post (HTML allowed)"),
			),
			mcp.WithString("status",
				mcp.Description("Post status. Default is 'draft'"),
				mcp.Enum(wordpress.PostStatuses...),
				mcp.DefaultString(wordpress.DefaultStatus),
			),
		),
		s.handleCreatePost,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_post",
			mcp.WithDescription("Delete a WordPress post by ID"),
			mcp.WithNumber("post_id",
				mcp.Required(),
				mcp.Description("The ID of the post to delete"),
			),
			mcp.WithBoolean("force",
				mcp.Description("Whether to bypass trash and force deletion. Default is false (moves to trash)"),
				mcp.DefaultBool(false),
			),
		),
		s.handleDeletePost,
	)
}

// handleCreatePost performs the create_post tool call. Every failure comes
// back as a tool error result rather than a protocol error, so one bad call
// never affects the session.
func (s *Server) handleCreatePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := request.GetString("status", wordpress.DefaultStatus)

	post, err := s.client.CreatePost(ctx, wordpress.CreatePostParams{
		Title:   title,
		Content: content,
		Status:  status,
	})
	if err != nil {
		s.logger.Warn("create_post failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error creating post: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Post created successfully! ID: %d, Title: %s, Status: %s, Link: %s",
		post.ID, post.Title, post.Status, post.Link,
	)), nil
}

// handleDeletePost performs the delete_post tool call.
func (s *Server) handleDeletePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := request.RequireInt("post_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	force := request.GetBool("force", false)

	result, err := s.client.DeletePost(ctx, postID, force)
	if err != nil {
		s.logger.Warn("delete_post failed", "post_id", postID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error deleting post: %v", err)), nil
	}

	var text string
	if result.Deleted {
		text = fmt.Sprintf("Post %d permanently deleted successfully!", result.ID)
		if result.PreviousStatus != "" {
			text += fmt.Sprintf(" (previous status: %s)", result.PreviousStatus)
		}
	} else {
		text = fmt.Sprintf("Post %d moved to trash successfully!", result.ID)
	}

	return mcp.NewToolResultText(text), nil
}
