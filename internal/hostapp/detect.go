package hostapp

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Presence reports what mcpdeck can find of the host application.
type Presence struct {
	HostConfigPath   string `json:"hostConfigPath"`
	HostConfigExists bool   `json:"hostConfigExists"`
	AppPath          string `json:"appPath,omitempty"`
	AppInstalled     bool   `json:"appInstalled"`
}

// Detect checks for the host configuration file and the application bundle.
func Detect(hostConfigPath string) Presence {
	return detect(runtime.GOOS, os.Getenv, hostConfigPath, exists)
}

func detect(goos string, getenv func(string) string, hostConfigPath string, stat func(string) bool) Presence {
	p := Presence{
		HostConfigPath:   hostConfigPath,
		HostConfigExists: stat(hostConfigPath),
		AppPath:          appPath(goos, getenv, defaultAppName),
	}
	if p.AppPath != "" {
		p.AppInstalled = stat(p.AppPath)
	}
	// Without a known bundle location an existing config directory is the
	// best evidence the application was installed.
	if p.AppPath == "" {
		p.AppInstalled = stat(filepath.Dir(hostConfigPath))
	}
	return p
}

func appPath(goos string, getenv func(string) string, app string) string {
	switch goos {
	case "darwin":
		return filepath.Join("/Applications", app+".app")
	case "windows":
		local := getenv("LOCALAPPDATA")
		if local == "" {
			return ""
		}
		return filepath.Join(local, "AnthropicClaude", strings.ToLower(app)+".exe")
	default:
		return ""
	}
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
