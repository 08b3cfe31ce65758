// Package mcp exposes the WordPress operations over the Model Context
// Protocol using the mcp-go library.
//
// The server registers two tools (create_post, delete_post), two resource
// templates (post://by-id/{post_id}, post://by-slug/{slug}), and one prompt
// per template in the prompt store. It speaks JSON-RPC 2.0 over stdio:
// stdout carries the protocol stream, so nothing else in the process may
// write to it.
package mcp

import (
	"context"
	"fmt"
	"os"

	"wpmcp/internal/config"
	"wpmcp/internal/logging"
	"wpmcp/internal/prompts"
	"wpmcp/internal/wordpress"

	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the identity reported to MCP clients during initialization.
const ServerName = "Wordpress"

// Server bundles the MCP server with the WordPress client and prompt store
// it dispatches to. All invocations are independent round trips; the server
// holds no mutable state between calls.
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	client    *wordpress.Client
	store     *prompts.Store
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers every tool, resource
// template, and prompt. Registration is purely declarative; no network
// traffic happens until a client invokes something.
func NewServer(cfg *config.Config, client *wordpress.Client, store *prompts.Store, version string, logger *logging.AppLogger) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		client: client,
		store:  store,
	}

	s.mcpServer = server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	logger.Info("MCP server initialized",
		"name", ServerName,
		"version", version,
		"site", client.BaseURL(),
		"timeout", cfg.RequestTimeout,
		"prompts", store.Len(),
	)

	return s
}

// Serve runs the stdio transport until the client disconnects or ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio")

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	s.logger.Info("MCP server stopped")
	return nil
}
