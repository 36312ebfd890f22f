// Package cli holds helpers shared by the cobra commands: global flags,
// the progress spinner and the mapping from engine errors to exit codes.
package cli
