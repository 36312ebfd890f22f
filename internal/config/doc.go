// Package config loads mcpdeck's own settings.
//
// Settings live in config.yaml inside a single configuration directory,
// ~/.config/mcpdeck by default or the directory passed with --config-dir.
// A missing file is not an error; every field has a default:
//
//	hostConfigPath: ~/Library/Application Support/Claude/claude_desktop_config.json
//	catalogPath: ""            # built-in catalog
//	stateDir: <configDir>/state
//	logLevel: info
//	lifecycle:
//	  verificationDelayMs: 800
//	  refreshConcurrency: 4
//	  stopBeforeUninstall: true
//	  statusIntervalSeconds: 30
//	  stopTimeoutMs: 5000
//
// This is distinct from the host application's JSON document, which is
// handled by the hostconfig package.
package config
