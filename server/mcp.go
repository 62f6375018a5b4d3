package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/starforgelabs/balance-server-2/broker"
	"github.com/starforgelabs/balance-server-2/packet"
	"github.com/starforgelabs/balance-server-2/serial"
)

// MCPServer exposes read-only balance state over the Model Context
// Protocol on stdio. Optional; enabled via configuration.
type MCPServer struct {
	server *mcpserver.MCPServer
}

func NewMCPServer(b *broker.Broker, enumerate broker.Enumerate) *MCPServer {
	s := mcpserver.NewMCPServer("balance-server", "2.0.0")

	status := mcp.NewTool("balance_status",
		mcp.WithDescription("Get the current balance connection status"))
	s.AddTool(status, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(map[string]any{
			"connected": b.IsOpen(),
			"device":    b.Device(),
		})
	})

	list := mcp.NewTool("list_devices",
		mcp.WithDescription("Get a list of the serial devices attached to this server"))
	s.AddTool(list, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metas, err := enumerate()
		if err != nil {
			return nil, err
		}
		device, open := b.Device(), b.IsOpen()
		devices := make([]packet.DeviceDescriptor, 0, len(metas))
		for _, meta := range metas {
			devices = append(devices, serial.Classify(meta, device, open))
		}
		return textResult(devices)
	})

	return &MCPServer{server: s}
}

func textResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		}}, nil
}

func (s *MCPServer) Start() error {
	slog.Info("started stdio MCP server")
	defer slog.Info("shut down stdio MCP server")
	return mcpserver.ServeStdio(s.server)
}
