package repl

import (
	"sort"
	"strings"
)

// Completer matches typed prefixes against command names.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over names.
func NewCompleter(names []string) *Completer {
	commands := make([]string, len(names))
	copy(commands, names)
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns the command names starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
