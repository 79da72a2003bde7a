// Package mcp exposes tab orchestration as MCP tools over stdio, bridging
// tool calls to the running daemon through the IPC client.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelbrowser/kestrel/internal/ipc"
)

const (
	ServerName    = "kestrel"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for browser tab orchestration.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates a new MCP server backed by the daemon's IPC socket.
func NewServer() (*Server, error) {
	s := &Server{
		client: ipc.NewClient(),
	}
	if err := s.client.Ping(); err != nil {
		return nil, fmt.Errorf("daemon not reachable: %w", err)
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_tab",
		Description: "Open a URL in a new browser tab and select it. Returns the tab ID for future reference.",
	}, s.handleOpenTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_tabs",
		Description: "List all tabs in a browser window with their URL, title, zoom factor and mute state, plus which tab is selected.",
	}, s.handleListTabs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "select_tab",
		Description: "Select a tab by ID, bringing its page to the front. Set focus=false to keep keyboard focus on the toolbar.",
	}, s.handleSelectTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tab",
		Description: "Close a tab by ID. Closing a tab that is already gone is not an error.",
	}, s.handleCloseTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_zoom",
		Description: "Adjust the selected tab's zoom one step in or out, or reset it to the default factor. Reports the resulting factor and whether the step was applied.",
	}, s.handleSetZoom)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mute_tab",
		Description: "Mute or unmute a tab's audio by ID.",
	}, s.handleMuteTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "shell_status",
		Description: "Report daemon status: window count, total tab count and uptime.",
	}, s.handleShellStatus)
}

func (s *Server) windowClient(windowID uint32) *ipc.Client {
	c := ipc.NewClient()
	c.SetWindow(windowID)
	return c
}

func (s *Server) handleOpenTab(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenTabInput) (*mcpsdk.CallToolResult, OpenTabOutput, error) {
	if args.URL == "" {
		return nil, OpenTabOutput{}, fmt.Errorf("url is required")
	}
	id, err := s.windowClient(args.WindowID).AddTab(args.URL)
	if err != nil {
		return nil, OpenTabOutput{}, err
	}
	return nil, OpenTabOutput{ID: id}, nil
}

func (s *Server) handleListTabs(_ context.Context, _ *mcpsdk.CallToolRequest, args ListTabsInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	state, err := s.windowClient(args.WindowID).GetState()
	if err != nil {
		return nil, ListTabsOutput{}, err
	}

	out := ListTabsOutput{
		Tabs:       make([]TabInfo, 0, len(state.Views)),
		Selected:   state.Selected,
		Fullscreen: state.Fullscreen,
		Incognito:  state.Incognito,
	}
	for _, v := range state.Views {
		out.Tabs = append(out.Tabs, TabInfo{
			ID:       v.ID,
			URL:      v.URL,
			Title:    v.Title,
			Zoom:     v.Zoom,
			Muted:    v.Muted,
			Selected: v.ID == state.Selected,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSelectTab(_ context.Context, _ *mcpsdk.CallToolRequest, args SelectTabInput) (*mcpsdk.CallToolResult, any, error) {
	focus := true
	if args.Focus != nil {
		focus = *args.Focus
	}
	if err := s.windowClient(args.WindowID).SelectView(args.ID, focus); err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Selected tab %d", args.ID)},
		},
	}, nil, nil
}

func (s *Server) handleCloseTab(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseTabInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.windowClient(args.WindowID).DestroyView(args.ID); err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Closed tab %d", args.ID)},
		},
	}, nil, nil
}

func (s *Server) handleSetZoom(_ context.Context, _ *mcpsdk.CallToolRequest, args SetZoomInput) (*mcpsdk.CallToolResult, SetZoomOutput, error) {
	client := s.windowClient(args.WindowID)

	var data *ipc.ZoomData
	var err error
	switch args.Direction {
	case "in", "out":
		data, err = client.ChangeZoom(args.Direction)
	case "reset":
		data, err = client.ResetZoom()
	default:
		return nil, SetZoomOutput{}, fmt.Errorf("direction must be in, out or reset (got %q)", args.Direction)
	}
	if err != nil {
		return nil, SetZoomOutput{}, err
	}
	return nil, SetZoomOutput{Factor: data.Factor, Applied: data.Applied}, nil
}

func (s *Server) handleMuteTab(_ context.Context, _ *mcpsdk.CallToolRequest, args MuteTabInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.windowClient(args.WindowID).MuteView(args.ID, args.Muted); err != nil {
		return nil, nil, err
	}
	verb := "Unmuted"
	if args.Muted {
		verb = "Muted"
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("%s tab %d", verb, args.ID)},
		},
	}, nil, nil
}

func (s *Server) handleShellStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ ShellStatusInput) (*mcpsdk.CallToolResult, ShellStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, ShellStatusOutput{}, err
	}
	return nil, ShellStatusOutput{
		WindowCount:   status.WindowCount,
		ViewCount:     status.ViewCount,
		UptimeSeconds: status.UptimeSeconds,
		DaemonRunning: status.DaemonRunning,
	}, nil
}
