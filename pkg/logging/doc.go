// Package logging provides the subsystem-tagged structured logger used across
// mcpdeck.
//
// It is a thin layer over log/slog. Every record carries a "subsystem"
// attribute so output from the lifecycle controller, the reconciler and the
// supervisor can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Lifecycle", "Installed %s", name)
//	logging.Error("HostConfig", err, "Failed to write %s", path)
//
// Two modes exist. CLI mode uses a text handler. Server mode (`mcpdeck serve`)
// uses a JSON handler on stderr because stdout carries the MCP protocol.
package logging
