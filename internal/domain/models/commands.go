package models

import "strings"

// CommandType enumerates the questions a farmer can ask the WhatsApp bot.
type CommandType string

const (
	CommandStats   CommandType = "stats"
	CommandAlerts  CommandType = "alerts"
	CommandBirths  CommandType = "births"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"stats":  CommandStats,
	"herd":   CommandStats,
	"alerts": CommandAlerts,
	"alert":  CommandAlerts,
	"births": CommandBirths,
	"birth":  CommandBirths,
	"due":    CommandBirths,
	"help":   CommandHelp,
	"menu":   CommandHelp,
	"start":  CommandHelp,
}

// Command represents a parsed farmer instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. A leading "/" is optional.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.ToLower(message))
	if len(tokens) == 0 {
		return cmd
	}
	if t, ok := commandAliases[strings.TrimPrefix(tokens[0], "/")]; ok {
		cmd.Type = t
	}
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
