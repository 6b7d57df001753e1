package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DefaultPrompt is shown before each line.
const DefaultPrompt = "supportform> "

// Command is one REPL command. Run receives the text after the command
// word, trimmed.
type Command struct {
	Name  string
	Args  string
	Usage string
	Run   func(ctx context.Context, rest string) error
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	commands  map[string]Command
	completer *Completer
	history   *History
}

// New creates a REPL reading from in and writing to out.
func New(in io.Reader, out io.Writer, commands []Command) *REPL {
	r := &REPL{
		input:    in,
		output:   out,
		prompt:   DefaultPrompt,
		commands: make(map[string]Command, len(commands)),
		history:  NewHistory(DefaultHistorySize),
	}
	names := []string{"help", "history", "exit", "quit"}
	for _, c := range commands {
		r.commands[c.Name] = c
		names = append(names, c.Name)
	}
	r.completer = NewCompleter(names)
	return r
}

// SetPrompt replaces the prompt.
func (r *REPL) SetPrompt(p string) {
	r.prompt = p
}

// Run reads and executes lines until exit, EOF or ctx is done. Command
// errors are printed and do not end the session.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		word, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		name, err := r.resolve(word)
		if err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
			continue
		}

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			r.printHelp()
			continue
		case "history":
			for i, entry := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
			}
			continue
		}

		if err := r.commands[name].Run(ctx, rest); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

// resolve maps a typed word to a command name.
func (r *REPL) resolve(word string) (string, error) {
	matches := r.completer.Complete(word)
	for _, m := range matches {
		if m == word {
			return m, nil
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("unknown command %q (type help)", word)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous command %q: %s", word, strings.Join(matches, ", "))
	}
}

func (r *REPL) printHelp() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := r.commands[name]
		fmt.Fprintf(r.output, "  %-28s %s\n", strings.TrimSpace(c.Name+" "+c.Args), c.Usage)
	}
	fmt.Fprintf(r.output, "  %-28s %s\n", "history", "Show the lines typed so far")
	fmt.Fprintf(r.output, "  %-28s %s\n", "exit", "Save and leave")
}
