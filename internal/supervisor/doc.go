// Package supervisor starts, stops and observes MCP server processes on the
// local machine.
//
// Start and stop are requests in the sense of the lifecycle contract: the
// lifecycle controller always verifies them with QueryRunning after a grace
// interval. A server whose command exits immediately (missing npx, bad
// arguments) therefore shows up as a failed start, and its output is in the
// per-server log file.
package supervisor
