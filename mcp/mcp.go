// Package mcp exposes read-only room state to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/roomctl/qrcbridge/qsys"
)

// Server wraps the stdio MCP server.
type Server struct {
	srv *server.MCPServer
}

// NewServer creates the MCP server with the room_status tool bound to f.
func NewServer(f *qsys.Feature) *Server {
	srv := server.NewMCPServer("qrcbridge", "1.0.0")

	tool := mcp.NewTool("room_status",
		mcp.WithDescription("Get the current conference room status as reported by the Q-SYS core"))
	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := f.LastStatus()
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{Type: "text", Text: string(data)},
			},
		}, nil
	})

	return &Server{srv: srv}
}

// Run serves MCP over stdio until the stream closes.
func (s *Server) Run() error {
	slog.Info("Started stdio MCP server")
	defer slog.Info("Shut down stdio MCP server")
	return server.ServeStdio(s.srv)
}
