// Package mcpsurface exposes mcpdeck itself as an MCP server, so an
// assistant can list, install, start and stop the host's MCP servers.
//
// Every tool returns JSON text. Engine errors are returned as tool errors,
// never as protocol errors.
package mcpsurface
