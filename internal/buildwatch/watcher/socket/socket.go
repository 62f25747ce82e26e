// Package socket implements the Unix socket control channel between the
// running watcher and the CLI.
package socket

// Actions understood by the watcher's command handler.
const (
	ActionStatus  = "status"
	ActionStop    = "stop"
	ActionReload  = "reload"
	ActionHistory = "history"
	ActionEvents  = "events"
)

// Command is one request sent over the control socket.
type Command struct {
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Response is the watcher's answer to a Command.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CommandHandler processes socket commands.
type CommandHandler interface {
	HandleCommand(cmd Command) Response
}
