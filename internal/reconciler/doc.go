// Package reconciler keeps observed runtime status in the UI store in line
// with what the supervisor reports.
//
// # Overview
//
// The lifecycle controller only ever changes status optimistically and
// verifies one name at a time. The reconciler is the independent path: it
// queries the supervisor for every configured name and replaces the whole
// status map, so entries removed by an uninstall (or by another tool) do
// not linger as running.
//
// # Concurrency
//
// RefreshAll issues one query per name, concurrently up to a limit. A query
// that fails counts as not running and is logged; it never aborts the batch.
// Names whose lifecycle operation is still in flight keep their optimistic
// value until the operation settles.
//
// # Usage
//
//	r := reconciler.New(supervisor, store, ui, reconciler.Options{Concurrency: 4})
//	if err := r.Sync(ctx); err != nil {
//		// host configuration unreadable; the UI keeps its last state
//	}
//	go r.Run(ctx, 30*time.Second)
//	r.Trigger() // e.g. from the host-config watcher
package reconciler
