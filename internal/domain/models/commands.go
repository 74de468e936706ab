package models

import "strings"

// CommandType enumerates supported chat command categories.
type CommandType string

const (
	CommandStock   CommandType = "stock"
	CommandSales   CommandType = "sales"
	CommandCash    CommandType = "cash"
	CommandReport  CommandType = "report"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"stock":   CommandStock,
	"alertes": CommandStock,
	"alerts":  CommandStock,
	"ventes":  CommandSales,
	"sales":   CommandSales,
	"caisse":  CommandCash,
	"cash":    CommandCash,
	"rapport": CommandReport,
	"report":  CommandReport,
	"aide":    CommandHelp,
	"help":    CommandHelp,
}

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.ToLower(message))
	cmd := Command{Type: CommandUnknown, Raw: message}
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.TrimPrefix(tokens[0], "/")
	if kind, ok := commandAliases[head]; ok {
		cmd.Type = kind
	}
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
