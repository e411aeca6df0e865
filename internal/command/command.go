// Package command turns one line of client input into a verb and its
// arguments.
package command

import "strings"

// Command is a single parsed client request.
type Command struct {
	Raw  string   // the line with CR/LF removed
	Verb string   // first token, "" for a blank line
	Args []string // remaining tokens in order
}

// Empty reports whether the line carried no tokens at all.
func (c Command) Empty() bool { return c.Verb == "" }

// Is reports whether the verb starts with name.  Matching is
// case-sensitive.
func (c Command) Is(name string) bool {
	return c.Verb != "" && strings.HasPrefix(c.Verb, name)
}

// ParseLine strips every CR and LF from raw and splits the rest on runs
// of whitespace.
func ParseLine(raw string) Command {
	line := strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, raw)

	cmd := Command{Raw: line}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return cmd
	}
	cmd.Verb = fields[0]
	cmd.Args = fields[1:]
	return cmd
}
