package mcp

import (
	"context"
	"fmt"

	"wpmcp/internal/prompts"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerPrompts declares one MCP prompt per template in the store. Prompt
// resolution is pure string formatting; no network or site state is touched.
func (s *Server) registerPrompts() {
	for _, tmpl := range s.store.Templates() {
		opts := []mcp.PromptOption{
			mcp.WithPromptDescription(tmpl.Description),
		}
		for _, arg := range tmpl.Arguments {
			argOpts := []mcp.ArgumentOption{
				mcp.ArgumentDescription(arg.Description),
			}
			if arg.Required {
				argOpts = append(argOpts, mcp.RequiredArgument())
			}
			opts = append(opts, mcp.WithArgument(arg.Name, argOpts...))
		}

		s.mcpServer.AddPrompt(mcp.NewPrompt(tmpl.Name, opts...), s.promptHandler(tmpl))
		s.logger.Debug("Registered prompt", "name", tmpl.Name, "source", tmpl.Source)
	}
}

// promptHandler renders one template with the request's arguments. Missing
// optional arguments pick up their declared defaults; a missing required
// argument fails the request.
func (s *Server) promptHandler(tmpl *prompts.Template) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		rendered, err := tmpl.Render(request.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", tmpl.Name, err)
		}

		return mcp.NewGetPromptResult(
			tmpl.Description,
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(rendered)),
			},
		), nil
	}
}
