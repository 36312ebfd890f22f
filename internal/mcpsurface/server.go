package mcpsurface

import (
	"context"
	"io"
	"log"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/view"
	"mcpdeck/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is the lifecycle controller as driven by MCP tools.
type Engine interface {
	Refresh(ctx context.Context) error
	View() view.View
	InstallTemplate(ctx context.Context, name, path string, env api.EnvDraft) error
	Uninstall(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	UpdatePath(ctx context.Context, name, path string) error
	SetEnv(ctx context.Context, name string, values map[string]string) error
	SetGlobalShortcut(ctx context.Context, value string) error
	RestartHost(ctx context.Context) <-chan error
}

// Server exposes the engine as MCP tools over stdio.
type Server struct {
	engine    Engine
	events    *events.Recorder
	mcpServer *server.MCPServer
	tools     []string
}

// New creates the MCP server. recorder may be nil, in which case the
// list_events tool is not offered.
func New(engine Engine, recorder *events.Recorder, version string) *Server {
	s := &Server{
		engine: engine,
		events: recorder,
		mcpServer: server.NewMCPServer(
			"mcpdeck",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// Serve speaks MCP on in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(logWriter{}, "", 0))
	logging.Info("MCPSurface", "Serving MCP over stdio")
	return stdio.Listen(ctx, in, out)
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool.Name)
	s.mcpServer.AddTool(tool, handler)
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("list_available",
		mcp.WithDescription("List catalog templates with their install state and missing inputs"),
	), s.handleListAvailable)

	s.addTool(mcp.NewTool("list_configured",
		mcp.WithDescription("List servers configured in the host application with their running state"),
	), s.handleListConfigured)

	s.addTool(mcp.NewTool("install_server",
		mcp.WithDescription("Install a catalog template into the host configuration"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
		mcp.WithString("path", mcp.Description("Directory for templates that take one")),
		mcp.WithObject("env", mcp.Description("Environment values keyed by variable name")),
	), s.handleInstall)

	s.addTool(mcp.NewTool("uninstall_server",
		mcp.WithDescription("Remove a server from the host configuration, stopping it first if it is running"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
	), s.handleUninstall)

	s.addTool(mcp.NewTool("start_server",
		mcp.WithDescription("Start a configured server and verify that it keeps running"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
	), s.handleStart)

	s.addTool(mcp.NewTool("stop_server",
		mcp.WithDescription("Stop a running server and verify that it stopped"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
	), s.handleStop)

	s.addTool(mcp.NewTool("set_env",
		mcp.WithDescription("Merge environment values into a configured server. Empty values are ignored"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
		mcp.WithObject("env", mcp.Required(), mcp.Description("Environment values keyed by variable name")),
	), s.handleSetEnv)

	s.addTool(mcp.NewTool("set_path",
		mcp.WithDescription("Replace the directory argument of a configured server"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
		mcp.WithString("path", mcp.Required(), mcp.Description("New directory")),
	), s.handleSetPath)

	s.addTool(mcp.NewTool("set_global_shortcut",
		mcp.WithDescription("Set the host application's global shortcut"),
		mcp.WithString("shortcut", mcp.Required(), mcp.Description("Shortcut, for example Ctrl+Space")),
	), s.handleSetShortcut)

	s.addTool(mcp.NewTool("refresh_status",
		mcp.WithDescription("Re-read the host configuration and query every server's running state"),
	), s.handleRefresh)

	s.addTool(mcp.NewTool("restart_host",
		mcp.WithDescription("Restart the host application so it re-reads its configuration"),
	), s.handleRestartHost)

	if s.events != nil {
		s.addTool(mcp.NewTool("list_events",
			mcp.WithDescription("List recent lifecycle events, optionally for one server"),
			mcp.WithString("name", mcp.Description("Server name")),
		), s.handleListEvents)
	}
}

// logWriter routes mcp-go's error log into structured logging so stdout
// stays reserved for the protocol.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	logging.Warn("MCPSurface", "%s", string(p))
	return len(p), nil
}
