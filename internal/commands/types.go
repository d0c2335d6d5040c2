package commands

import (
	"context"

	"github.com/roelfdiedericks/notionvox/internal/types"
)

// Command is a slash command with a canned response.
type Command struct {
	Name        string   // e.g. "/help"
	Description string   // shown by /help
	Aliases     []string // e.g. ["/id"]
	// Public commands skip the allow-list. Only self-service commands that
	// call no paid API may be public.
	Public  bool
	Handler Handler
}

// Handler produces the reply for a command.
type Handler func(ctx context.Context, args *Args) *Result

// Args is what a handler gets to work with.
type Args struct {
	Sender  types.Sender
	ChatID  int64
	RawArgs string   // everything after the command name
	Manager *Manager // for /help
}

// Result is a command reply as markdown.
type Result struct {
	Markdown string
}
