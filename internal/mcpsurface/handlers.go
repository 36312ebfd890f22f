package mcpsurface

import (
	"context"
	"encoding/json"
	"fmt"

	"mcpdeck/internal/view"
	"mcpdeck/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// opResult is returned by every mutating tool.
type opResult struct {
	Message string          `json:"message"`
	Server  *view.ServerRow `json:"server,omitempty"`
}

func (s *Server) handleListAvailable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(nonNil(s.engine.View().Available))
}

func (s *Server) handleListConfigured(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := s.engine.View()
	return jsonResult(struct {
		GlobalShortcut string           `json:"globalShortcut"`
		Servers        []view.ServerRow `json:"servers"`
	}{v.GlobalShortcut, nonNil(v.Configured)})
}

func (s *Server) handleInstall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	env, err := stringMap(request.GetArguments()["env"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	err = s.engine.InstallTemplate(ctx, name, request.GetString("path", ""), env)
	return s.opResult(name, fmt.Sprintf("installed %s", name), err)
}

func (s *Server) handleUninstall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	err = s.engine.Uninstall(ctx, name)
	return s.opResult(name, fmt.Sprintf("uninstalled %s", name), err)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	err = s.engine.Start(ctx, name)
	return s.opResult(name, fmt.Sprintf("started %s", name), err)
}

func (s *Server) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	err = s.engine.Stop(ctx, name)
	return s.opResult(name, fmt.Sprintf("stopped %s", name), err)
}

func (s *Server) handleSetEnv(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	env, err := stringMap(request.GetArguments()["env"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(env) == 0 {
		return mcp.NewToolResultError("env argument is required"), nil
	}
	err = s.engine.SetEnv(ctx, name, env)
	return s.opResult(name, fmt.Sprintf("updated environment of %s", name), err)
}

func (s *Server) handleSetPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required"), nil
	}
	err = s.engine.UpdatePath(ctx, name, path)
	return s.opResult(name, fmt.Sprintf("updated path of %s", name), err)
}

func (s *Server) handleSetShortcut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shortcut, err := request.RequireString("shortcut")
	if err != nil {
		return mcp.NewToolResultError("shortcut argument is required"), nil
	}
	if err := s.engine.SetGlobalShortcut(ctx, shortcut); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(opResult{Message: fmt.Sprintf("global shortcut set to %s", shortcut)})
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
	}
	return jsonResult(s.engine.View())
}

func (s *Server) handleRestartHost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	select {
	case err := <-s.engine.RestartHost(ctx):
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("restart failed: %v", err)), nil
		}
		return jsonResult(opResult{Message: "host application restarted"})
	case <-ctx.Done():
		return mcp.NewToolResultError(ctx.Err().Error()), nil
	}
}

func (s *Server) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(nonNil(s.events.History(request.GetString("name", ""))))
}

// opResult reports err as a tool error, or the server's current row.
func (s *Server) opResult(name, message string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		logging.Debug("MCPSurface", "Tool call for %s failed: %v", name, err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := opResult{Message: message}
	for _, row := range s.engine.View().Configured {
		if row.Name == name {
			row := row
			res.Server = &row
			break
		}
	}
	return jsonResult(res)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// stringMap converts a JSON object argument into string values.
func stringMap(raw interface{}) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("env must be an object of strings")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("env value for %s must be a string", k)
		}
		out[k] = str
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
