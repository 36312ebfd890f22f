package events

import (
	"time"
)

// EventType represents the severity of a lifecycle event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

// Configuration events
const (
	// ReasonServerInstalled indicates an entry was written to the host configuration.
	ReasonServerInstalled EventReason = "ServerInstalled"

	// ReasonServerInstallFailed indicates an install was rejected or could not be persisted.
	ReasonServerInstallFailed EventReason = "ServerInstallFailed"

	// ReasonServerUninstalled indicates an entry was removed from the host configuration.
	ReasonServerUninstalled EventReason = "ServerUninstalled"

	// ReasonServerUninstallFailed indicates an uninstall could not complete.
	ReasonServerUninstallFailed EventReason = "ServerUninstallFailed"

	// ReasonServerUpdated indicates an entry's args or env were changed.
	ReasonServerUpdated EventReason = "ServerUpdated"

	// ReasonServerUpdateFailed indicates an entry update could not be persisted.
	ReasonServerUpdateFailed EventReason = "ServerUpdateFailed"

	// ReasonShortcutUpdated indicates the host global shortcut was changed.
	ReasonShortcutUpdated EventReason = "ShortcutUpdated"

	// ReasonConfigChanged indicates the host configuration changed on disk.
	ReasonConfigChanged EventReason = "ConfigChanged"
)

// Runtime events
const (
	// ReasonServerStarting indicates a start request was issued.
	ReasonServerStarting EventReason = "ServerStarting"

	// ReasonServerStarted indicates a start was verified.
	ReasonServerStarted EventReason = "ServerStarted"

	// ReasonServerStartFailed indicates a start was rolled back.
	ReasonServerStartFailed EventReason = "ServerStartFailed"

	// ReasonServerStopping indicates a stop request was issued.
	ReasonServerStopping EventReason = "ServerStopping"

	// ReasonServerStopped indicates a stop was verified.
	ReasonServerStopped EventReason = "ServerStopped"

	// ReasonServerStopFailed indicates a stop was rolled back.
	ReasonServerStopFailed EventReason = "ServerStopFailed"

	// ReasonHostRestarted indicates the host application was asked to restart.
	ReasonHostRestarted EventReason = "HostRestarted"

	// ReasonHostRestartFailed indicates the host application restart failed.
	ReasonHostRestartFailed EventReason = "HostRestartFailed"
)

// EventData holds contextual information for event message templating.
type EventData struct {
	// Name is the server the event is about. Empty for host-wide events.
	Name string

	// Operation is the operation that triggered the event (install, start...).
	Operation string

	// OperationID correlates all events of one operation.
	OperationID string

	// Error contains error information for failure events.
	Error string

	// Duration is the wall time of the operation, including verification.
	Duration time.Duration
}

// Event is one recorded lifecycle event.
type Event struct {
	ID          string        `json:"id"`
	Time        time.Time     `json:"time"`
	Type        EventType     `json:"type"`
	Reason      EventReason   `json:"reason"`
	Name        string        `json:"name,omitempty"`
	OperationID string        `json:"operationId,omitempty"`
	Message     string        `json:"message"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// getEventType returns the appropriate EventType for a given EventReason.
func getEventType(reason EventReason) EventType {
	switch reason {
	case ReasonServerInstallFailed,
		ReasonServerUninstallFailed,
		ReasonServerUpdateFailed,
		ReasonServerStartFailed,
		ReasonServerStopFailed,
		ReasonHostRestartFailed:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}
