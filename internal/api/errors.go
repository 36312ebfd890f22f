package api

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports missing user input detected before any side effect.
// It is never persisted and is recoverable by supplying the input.
type ValidationError struct {
	// Name is the server or template the input belongs to.
	Name string

	// MissingEnv lists declared env keys with neither a draft nor a default.
	MissingEnv []string

	// MissingPath is set when a filesystem path is required but absent.
	MissingPath bool

	// Message overrides the generated description.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid input for %s: %s", e.Name, e.Message)
	}
	var parts []string
	if e.MissingPath {
		parts = append(parts, "a directory path is required")
	}
	if len(e.MissingEnv) > 0 {
		parts = append(parts, "missing environment values: "+strings.Join(e.MissingEnv, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invalid input for %s", e.Name)
	}
	return fmt.Sprintf("invalid input for %s: %s", e.Name, strings.Join(parts, "; "))
}

// IsValidation checks if an error is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// NotFoundError represents an operation on an unknown name.
type NotFoundError struct {
	// ResourceType is "server" or "template".
	ResourceType string
	ResourceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// NewServerNotFoundError creates a NotFoundError for an installed entry.
func NewServerNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "server", ResourceName: name}
}

// NewTemplateNotFoundError creates a NotFoundError for a catalog template.
func NewTemplateNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "template", ResourceName: name}
}

// AlreadyInstalledError is returned when install targets a name that already
// has an entry. The existing entry is left untouched.
type AlreadyInstalledError struct {
	Name string
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("server %s is already installed", e.Name)
}

// IsAlreadyInstalled checks if an error is or wraps an AlreadyInstalledError.
func IsAlreadyInstalled(err error) bool {
	var target *AlreadyInstalledError
	return errors.As(err, &target)
}

// InstallError wraps a failed store write during install.
type InstallError struct {
	Name string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install %s: %v", e.Name, e.Err)
}

// Cause returns the message of the wrapped error without the server name.
func (e *InstallError) Cause() string { return e.Err.Error() }

func (e *InstallError) Unwrap() error { return e.Err }

// IsInstallError checks if an error is or wraps an InstallError.
func IsInstallError(err error) bool {
	var target *InstallError
	return errors.As(err, &target)
}

// StartFailedError reports a start request that did not result in a running
// process after verification.
type StartFailedError struct {
	Name string
	// Err is the supervisor or query error, nil when the query simply
	// reported the process as not running.
	Err error
}

func (e *StartFailedError) Error() string {
	return fmt.Sprintf("server %s failed to start: %s", e.Name, e.Cause())
}

// Cause describes why the start failed without the server name.
func (e *StartFailedError) Cause() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "not running after verification"
}

func (e *StartFailedError) Unwrap() error { return e.Err }

// IsStartFailed checks if an error is or wraps a StartFailedError.
func IsStartFailed(err error) bool {
	var target *StartFailedError
	return errors.As(err, &target)
}

// StopFailedError reports a stop request after which the process was still
// observed running.
type StopFailedError struct {
	Name string
	Err  error
}

func (e *StopFailedError) Error() string {
	return fmt.Sprintf("server %s failed to stop: %s", e.Name, e.Cause())
}

// Cause describes why the stop failed without the server name.
func (e *StopFailedError) Cause() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "still running after verification"
}

func (e *StopFailedError) Unwrap() error { return e.Err }

// IsStopFailed checks if an error is or wraps a StopFailedError.
func IsStopFailed(err error) bool {
	var target *StopFailedError
	return errors.As(err, &target)
}

// CatalogUnavailableError reports a failing template catalog. Callers treat
// it as an empty catalog.
type CatalogUnavailableError struct {
	Source string
	Err    error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("template catalog %s unavailable: %v", e.Source, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

// IsCatalogUnavailable checks if an error is or wraps a CatalogUnavailableError.
func IsCatalogUnavailable(err error) bool {
	var target *CatalogUnavailableError
	return errors.As(err, &target)
}

// ConfigIOError reports a failure reading or writing the host configuration.
type ConfigIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigIOError) Error() string {
	return fmt.Sprintf("host config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigIOError) Unwrap() error { return e.Err }

// IsConfigIO checks if an error is or wraps a ConfigIOError.
func IsConfigIO(err error) bool {
	var target *ConfigIOError
	return errors.As(err, &target)
}
