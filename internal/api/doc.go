// Package api holds the types shared by every mcpdeck component: catalog
// templates, installed entries, the host configuration view, the error
// taxonomy and the contracts of the external collaborators (config store,
// template catalog, process supervisor, directory picker, host restarter).
//
// The server name is the single join key between the persisted
// configuration, the runtime status map and the UI state. Every map in this
// package is keyed by it.
package api
