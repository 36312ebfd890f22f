// Package watcher notifies mcpdeck when the host configuration file changes
// on disk, so installs and removals made outside mcpdeck show up without a
// manual refresh.
package watcher
