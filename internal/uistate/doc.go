// Package uistate holds the in-memory state behind every mcpdeck view:
// the last read host configuration, the catalog, observed and optimistic
// running status, pending directory selections, env drafts, per-name
// lifecycle phases and the last error per name.
//
// Readers get deep copies. Subscribers are called synchronously after each
// mutation, outside the store's locks, with the projected view.
package uistate
