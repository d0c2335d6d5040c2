// Package commands holds the bot's text commands and their canned responses.
package commands

import (
	"context"
	"sort"
	"strings"
	"sync"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// Manager is the command registry.
type Manager struct {
	mu       sync.RWMutex
	commands map[string]*Command // keyed by lowercase name and aliases
	botName  string              // lowercase, without @
}

// NewManager returns a registry with the built-in commands.
// botName, when known, restricts "/cmd@name" forms to this bot.
func NewManager(botName string) *Manager {
	m := &Manager{
		commands: make(map[string]*Command),
		botName:  strings.ToLower(strings.TrimPrefix(botName, "@")),
	}
	registerBuiltins(m)
	return m
}

// Register adds a command and its aliases.
func (m *Manager) Register(cmd *Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[strings.ToLower(cmd.Name)] = cmd
	for _, alias := range cmd.Aliases {
		m.commands[strings.ToLower(alias)] = cmd
	}
}

// Get returns a command by name or alias.
func (m *Manager) Get(name string) *Command {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commands[strings.ToLower(name)]
}

// List returns each command once, sorted by name.
func (m *Manager) List() []*Command {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[*Command]bool)
	var list []*Command
	for _, cmd := range m.commands {
		if !seen[cmd] {
			seen[cmd] = true
			list = append(list, cmd)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Parse splits text into a command name and its arguments. The name keeps
// its leading slash and loses any "@botname" suffix. ok is false for text
// that is not a command, or a command addressed to a different bot.
func (m *Manager) Parse(text string) (name, rawArgs string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name, rawArgs, _ = strings.Cut(text, " ")
	rawArgs = strings.TrimSpace(rawArgs)

	if base, target, found := strings.Cut(name, "@"); found {
		if m.botName != "" && !strings.EqualFold(target, m.botName) {
			return "", "", false
		}
		name = base
	}
	return strings.ToLower(name), rawArgs, true
}

// Lookup resolves text to a registered command.
func (m *Manager) Lookup(text string) (*Command, string) {
	name, rawArgs, ok := m.Parse(text)
	if !ok {
		return nil, ""
	}
	return m.Get(name), rawArgs
}

// Execute runs cmd. Authorization is the caller's job.
func (m *Manager) Execute(ctx context.Context, cmd *Command, args *Args) *Result {
	args.Manager = m
	L_debug("commands: executing", "command", cmd.Name, "userID", args.Sender.ID)
	return cmd.Handler(ctx, args)
}
