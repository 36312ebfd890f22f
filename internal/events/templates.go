package events

import (
	"fmt"
	"strings"
	"text/template"
)

// defaultMessages are text/template sources rendered against EventData.
var defaultMessages = map[EventReason]string{
	ReasonServerInstalled:       "Server {{.Name}} installed",
	ReasonServerInstallFailed:   "Server {{.Name}} install failed{{with .Error}}: {{.}}{{end}}",
	ReasonServerUninstalled:     "Server {{.Name}} uninstalled",
	ReasonServerUninstallFailed: "Server {{.Name}} uninstall failed{{with .Error}}: {{.}}{{end}}",
	ReasonServerUpdated:         "Server {{.Name}} configuration updated ({{.Operation}})",
	ReasonServerUpdateFailed:    "Server {{.Name}} configuration update failed{{with .Error}}: {{.}}{{end}}",
	ReasonShortcutUpdated:       "Global shortcut updated",
	ReasonConfigChanged:         "Host configuration changed on disk{{with .Operation}} ({{.}}){{end}}",

	ReasonServerStarting:    "Server {{.Name}} is starting",
	ReasonServerStarted:     "Server {{.Name}} started{{if .Duration}} in {{.Duration}}{{end}}",
	ReasonServerStartFailed: "Server {{.Name}} failed to start{{with .Error}}: {{.}}{{end}}",
	ReasonServerStopping:    "Server {{.Name}} is stopping",
	ReasonServerStopped:     "Server {{.Name}} stopped{{if .Duration}} in {{.Duration}}{{end}}",
	ReasonServerStopFailed:  "Server {{.Name}} failed to stop{{with .Error}}: {{.}}{{end}}",
	ReasonHostRestarted:     "Host application restarted",
	ReasonHostRestartFailed: "Host application restart failed{{with .Error}}: {{.}}{{end}}",
}

type messageTemplate struct {
	source string
	tmpl   *template.Template
}

// MessageTemplateEngine renders human-readable event messages. It is not
// safe to call SetTemplate concurrently with Render.
type MessageTemplateEngine struct {
	templates map[EventReason]messageTemplate
}

// NewMessageTemplateEngine creates an engine with the default messages.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	e := &MessageTemplateEngine{templates: make(map[EventReason]messageTemplate, len(defaultMessages))}
	for reason, src := range defaultMessages {
		e.SetTemplate(reason, src)
	}
	return e
}

// Render returns the message for reason. Reasons without a usable template
// get a generic message.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	mt, ok := e.templates[reason]
	if ok && mt.tmpl != nil {
		var b strings.Builder
		if err := mt.tmpl.Execute(&b, data); err == nil {
			return b.String()
		}
	}
	if data.Name == "" {
		return fmt.Sprintf("Event: %s", reason)
	}
	return fmt.Sprintf("Event: %s for %s", reason, data.Name)
}

// SetTemplate replaces the message template of reason. A source that does
// not parse is kept for GetTemplate but renders the generic message.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, source string) {
	tmpl, err := template.New(string(reason)).Option("missingkey=zero").Parse(source)
	if err != nil {
		tmpl = nil
	}
	e.templates[reason] = messageTemplate{source: source, tmpl: tmpl}
}

// GetTemplate returns the template source of reason.
func (e *MessageTemplateEngine) GetTemplate(reason EventReason) (string, bool) {
	mt, ok := e.templates[reason]
	return mt.source, ok
}
