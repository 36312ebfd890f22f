// Package lifecycle implements install, uninstall, update, start and stop
// of MCP server entries.
//
// The Controller is the only writer of installed entries. Each operation
// takes a per-name lock, so a stop issued while a start is still verifying
// waits for the start to settle. Operations on different names run in
// parallel.
//
// Start and stop are two-phase. The UI store is updated optimistically, the
// supervisor is asked to act, and after a grace interval the supervisor is
// queried once. A result that contradicts the request reverts the UI and
// returns StartFailedError or StopFailedError. There are no retries.
//
// Every outcome is recorded in the UI store per name (phase and last error),
// emitted as an event, and counted in Prometheus metrics.
package lifecycle
