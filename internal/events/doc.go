// Package events records what the lifecycle controller did.
//
// Each install, uninstall, update, start and stop produces events carrying a
// reason code, a rendered message and an operation ID that ties the request
// and its verification together. Failure reasons are Warning events and are
// logged at warn level. The recorder keeps a bounded in-memory history that
// the CLI and the MCP surface expose, and supports live subscriptions for
// serve mode.
package events
