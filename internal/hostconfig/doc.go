// Package hostconfig edits the host application's claude_desktop_config.json.
//
// Only the mcpServers map and the globalShortcut value are interpreted.
// Other top-level keys, and unknown keys inside individual server records,
// survive every write unchanged in value.
package hostconfig
