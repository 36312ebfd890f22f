// Package picker implements the interactive prompts of the CLI: the
// directory picker used for file-path templates and the environment
// variable prompt used during install.
package picker
