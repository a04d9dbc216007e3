package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/ipc"
)

const (
	ServerName    = "spotlight-dimmer"
	ServerVersion = "0.1.0"
)

// DaemonClient is the subset of the IPC client the tools call.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetDisplays() (*ipc.DisplaysData, error)
	Pause() (bool, error)
	Resume() (bool, error)
	TogglePause() (bool, error)
	SetMode(mode string) error
	ListProfiles() (*ipc.ProfilesData, error)
	ApplyProfile(name string) error
	SaveProfile(name string) error
	DeleteProfile(name string) error
	Reload() error
}

// Server exposes the running daemon's controls as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
}

// NewServer creates an MCP server that forwards every tool call to the
// daemon through client.
func NewServer(client DaemonClient) *Server {
	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the dimmer's state: paused flag, overlay mode, colors and opacities, focused display and renderer counters.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the monitors the dimmer currently covers, in desktop coordinates.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pause",
		Description: "Hide every overlay until resumed. The paused flag is saved to the config file.",
	}, s.handlePause)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resume",
		Description: "Show overlays again after a pause.",
	}, s.handleResume)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_pause",
		Description: "Flip between paused and dimming. Returns the new paused flag.",
	}, s.handleTogglePause)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_mode",
		Description: "Switch the overlay mode. fullscreen dims whole inactive monitors, partial also dims around the focused window, partial-with-active additionally tints the focused window.",
	}, s.handleSetMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_profiles",
		Description: "List saved and built-in appearance profiles. The profile matching the live settings is marked current.",
	}, s.handleListProfiles)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_profile",
		Description: "Load a named profile into the live settings.",
	}, s.handleApplyProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_profile",
		Description: "Store the live settings under a profile name, replacing any profile with that name.",
	}, s.handleSaveProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_profile",
		Description: "Remove a saved profile from the config file.",
	}, s.handleDeleteProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Re-read the config file and apply it. An invalid file is rejected and the previous settings stay active.",
	}, s.handleReloadConfig)
}
