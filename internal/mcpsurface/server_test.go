package mcpsurface

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/view"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	view  view.View
	err   error
	calls []string

	lastPath string
	lastEnv  map[string]string
}

func (e *fakeEngine) Refresh(ctx context.Context) error {
	e.calls = append(e.calls, "refresh")
	return e.err
}

func (e *fakeEngine) View() view.View { return e.view }

func (e *fakeEngine) InstallTemplate(ctx context.Context, name, path string, env api.EnvDraft) error {
	e.calls = append(e.calls, "install "+name)
	e.lastPath, e.lastEnv = path, env
	if e.err == nil {
		e.view.Configured = append(e.view.Configured, view.ServerRow{Name: name, Command: "npx"})
	}
	return e.err
}

func (e *fakeEngine) Uninstall(ctx context.Context, name string) error {
	e.calls = append(e.calls, "uninstall "+name)
	return e.err
}

func (e *fakeEngine) Start(ctx context.Context, name string) error {
	e.calls = append(e.calls, "start "+name)
	return e.err
}

func (e *fakeEngine) Stop(ctx context.Context, name string) error {
	e.calls = append(e.calls, "stop "+name)
	return e.err
}

func (e *fakeEngine) UpdatePath(ctx context.Context, name, path string) error {
	e.calls = append(e.calls, "path "+name)
	e.lastPath = path
	return e.err
}

func (e *fakeEngine) SetEnv(ctx context.Context, name string, values map[string]string) error {
	e.calls = append(e.calls, "env "+name)
	e.lastEnv = values
	return e.err
}

func (e *fakeEngine) SetGlobalShortcut(ctx context.Context, value string) error {
	e.calls = append(e.calls, "shortcut "+value)
	return e.err
}

func (e *fakeEngine) RestartHost(ctx context.Context) <-chan error {
	e.calls = append(e.calls, "restart")
	done := make(chan error, 1)
	done <- e.err
	close(done)
	return done
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestListAvailable(t *testing.T) {
	engine := &fakeEngine{view: view.View{Available: []view.TemplateRow{{Name: "git", CanInstall: true}}}}
	s := New(engine, nil, "test")

	res, err := s.handleListAvailable(context.Background(), request(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var rows []view.TemplateRow
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "git", rows[0].Name)
	assert.True(t, rows[0].CanInstall)
}

func TestListConfigured_Empty(t *testing.T) {
	s := New(&fakeEngine{}, nil, "test")

	res, err := s.handleListConfigured(context.Background(), request(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"globalShortcut":"","servers":[]}`, resultText(t, res))
}

func TestInstall(t *testing.T) {
	engine := &fakeEngine{}
	s := New(engine, nil, "test")

	res, err := s.handleInstall(context.Background(), request(map[string]interface{}{
		"name": "filesystem",
		"path": "/work",
		"env":  map[string]interface{}{"TOKEN": "x"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"install filesystem"}, engine.calls)
	assert.Equal(t, "/work", engine.lastPath)
	assert.Equal(t, map[string]string{"TOKEN": "x"}, engine.lastEnv)

	var out opResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "installed filesystem", out.Message)
	require.NotNil(t, out.Server)
	assert.Equal(t, "filesystem", out.Server.Name)
}

func TestInstall_BadArguments(t *testing.T) {
	engine := &fakeEngine{}
	s := New(engine, nil, "test")

	res, err := s.handleInstall(context.Background(), request(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleInstall(context.Background(), request(map[string]interface{}{
		"name": "x",
		"env":  map[string]interface{}{"N": 3},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "must be a string")
	assert.Empty(t, engine.calls)
}

func TestEngineErrorsBecomeToolErrors(t *testing.T) {
	engine := &fakeEngine{err: &api.StartFailedError{Name: "git", Err: errors.New("exited")}}
	s := New(engine, nil, "test")
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
	}{
		{"start", s.handleStart, map[string]interface{}{"name": "git"}},
		{"stop", s.handleStop, map[string]interface{}{"name": "git"}},
		{"uninstall", s.handleUninstall, map[string]interface{}{"name": "git"}},
		{"set_path", s.handleSetPath, map[string]interface{}{"name": "git", "path": "/x"}},
		{"set_env", s.handleSetEnv, map[string]interface{}{"name": "git", "env": map[string]interface{}{"A": "b"}}},
		{"shortcut", s.handleSetShortcut, map[string]interface{}{"shortcut": "Ctrl+K"}},
		{"refresh", s.handleRefresh, nil},
		{"restart", s.handleRestartHost, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, request(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), "exited")
		})
	}
}

func TestSetEnv_RequiresValues(t *testing.T) {
	engine := &fakeEngine{}
	s := New(engine, nil, "test")

	res, err := s.handleSetEnv(context.Background(), request(map[string]interface{}{"name": "git"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Empty(t, engine.calls)
}

func TestListEvents(t *testing.T) {
	rec := events.NewRecorder(10)
	rec.Record(events.ReasonServerStarted, events.EventData{Name: "git"})
	rec.Record(events.ReasonServerStarted, events.EventData{Name: "fetch"})

	s := New(&fakeEngine{}, rec, "test")
	assert.Contains(t, s.ToolNames(), "list_events")

	res, err := s.handleListEvents(context.Background(), request(map[string]interface{}{"name": "git"}))
	require.NoError(t, err)

	var got []events.Event
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "git", got[0].Name)
}

func TestListEvents_NotRegisteredWithoutRecorder(t *testing.T) {
	s := New(&fakeEngine{}, nil, "test")
	assert.NotContains(t, s.ToolNames(), "list_events")
	assert.Equal(t, []string{
		"list_available", "list_configured", "install_server", "uninstall_server",
		"start_server", "stop_server", "set_env", "set_path",
		"set_global_shortcut", "refresh_status", "restart_host",
	}, s.ToolNames())
}
