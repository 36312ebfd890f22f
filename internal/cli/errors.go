package cli

import (
	"errors"
	"fmt"

	"mcpdeck/internal/api"
	"mcpdeck/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeValidation indicates invalid input or a failed precondition.
	ExitCodeValidation = 2
	// ExitCodeNotFound indicates an unknown server or template.
	ExitCodeNotFound = 3
	// ExitCodeProcess indicates a start or stop that did not take effect.
	ExitCodeProcess = 4
	// ExitCodeIO indicates the host configuration could not be read or written.
	ExitCodeIO = 5
)

// ExitCode maps err to the exit code of the process.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var cfgErr config.ConfigurationError
	switch {
	case api.IsValidation(err), api.IsAlreadyInstalled(err):
		return ExitCodeValidation
	case api.IsNotFound(err):
		return ExitCodeNotFound
	case api.IsStartFailed(err), api.IsStopFailed(err):
		return ExitCodeProcess
	case api.IsConfigIO(err):
		return ExitCodeIO
	case errors.As(err, &cfgErr):
		if cfgErr.ErrorType == "io" {
			return ExitCodeIO
		}
		return ExitCodeValidation
	default:
		return ExitCodeError
	}
}

// Hint returns a suggestion for how to continue after err, or "".
func Hint(err error) string {
	var validation *api.ValidationError
	switch {
	case errors.As(err, &validation):
		switch {
		case validation.MissingPath && len(validation.MissingEnv) > 0:
			return fmt.Sprintf("pass --path DIR and --env for %v", validation.MissingEnv)
		case validation.MissingPath:
			return "pass --path DIR or --pick to choose a directory"
		case len(validation.MissingEnv) > 0:
			return fmt.Sprintf("pass --env KEY=VALUE for %v", validation.MissingEnv)
		}
	case api.IsAlreadyInstalled(err):
		return "use 'mcpdeck env set' or 'mcpdeck path set' to change an installed server"
	case api.IsStartFailed(err):
		return "check the server log with 'mcpdeck logs <name>'"
	case api.IsNotFound(err):
		return "run 'mcpdeck available' or 'mcpdeck config show' to list names"
	}
	return ""
}
