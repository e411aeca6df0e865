// Package dispatch maps parsed client commands onto filesystem
// operations and renders their replies.
//
// A Dispatcher holds no per-client state: everything that belongs to a
// connection lives on the *session.Session passed to Dispatch.
package dispatch

import (
	"fmt"
	"strings"
	"time"

	"fsbrowse/internal/command"
	"fsbrowse/internal/fsys"
	"fsbrowse/internal/metrics"
	"fsbrowse/internal/session"
	"fsbrowse/util"
)

// Replies sent for rejected commands.
const (
	MsgWrongCommand  = "Wrong command\n"
	MsgWrongLsArg    = "Wrong arg for ls command\n"
	MsgWrongCdArg    = "Wrong arg for cd command\n"
	MsgWrongCatArg   = "Wrong arg for cat command\n"
	MsgWrongTouchArg = "Wrong arg for touch command\n"
)

// handler runs one verb.  ok is false when the reply reports a failure.
type handler func(sess *session.Session, cmd command.Command) (reply string, ok bool)

type route struct {
	verb string
	run  handler
}

// Dispatcher executes commands against an *fsys.FS.
type Dispatcher struct {
	fs      *fsys.FS
	logger  *util.Logger
	metrics *metrics.Collector
	routes  []route
}

// New creates a Dispatcher.  A nil logger discards everything except
// errors; a nil collector disables counting.
func New(fs *fsys.FS, logger *util.Logger, m *metrics.Collector) *Dispatcher {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	d := &Dispatcher{fs: fs, logger: logger, metrics: m}
	// Checked in order; the first verb that prefixes the token wins.
	d.routes = []route{
		{metrics.VerbLs, d.ls},
		{metrics.VerbCd, d.cd},
		{metrics.VerbCat, d.cat},
		{metrics.VerbTouch, d.touch},
	}
	return d
}

// Dispatch parses line, runs it in the context of sess and returns the
// bytes to send back.  A nil result means the command has no reply:
// blank lines, unknown verbs and a successful cd.
func (d *Dispatcher) Dispatch(sess *session.Session, line string) []byte {
	cmd := command.ParseLine(line)
	if cmd.Empty() {
		return nil
	}

	for _, r := range d.routes {
		if !cmd.Is(r.verb) {
			continue
		}
		reply, ok := r.run(sess, cmd)
		d.metrics.CommandHandled(r.verb, !ok)
		if d.logger.Enabled(util.LogDebug) {
			d.logger.Debug("%s: %q in %s -> %q", sess.ID, cmd.Raw, sess.WorkDir, reply)
		}
		if reply == "" {
			return nil
		}
		return []byte(reply)
	}

	d.metrics.CommandHandled(metrics.VerbOther, false)
	d.logger.Debug("%s: ignoring unknown command %q", sess.ID, cmd.Raw)
	return nil
}

// ls lists the working directory.  Arguments are ignored.
func (d *Dispatcher) ls(sess *session.Session, _ command.Command) (string, bool) {
	names, err := d.fs.ListEntries(sess.WorkDir)
	if err != nil {
		d.logger.Warn("%s: ls: %v", sess.ID, err)
		return MsgWrongLsArg, false
	}
	return strings.Join(names, ", ") + "\n", true
}

// cd moves the session's working directory.  On failure the previous
// directory is kept.
func (d *Dispatcher) cd(sess *session.Session, cmd command.Command) (string, bool) {
	if len(cmd.Args) != 1 {
		return MsgWrongCommand, false
	}
	target := fsys.Resolve(sess.WorkDir, cmd.Args[0])
	if !d.fs.IsDir(target) && !d.fs.Exists(target) {
		return MsgWrongCdArg, false
	}
	sess.WorkDir = target
	return "", true
}

// cat prints the distinct lines of a file, in first-seen order.
func (d *Dispatcher) cat(sess *session.Session, cmd command.Command) (string, bool) {
	if len(cmd.Args) != 1 {
		return MsgWrongCommand, false
	}
	// The working directory is validated here, not the target, and
	// the cd message is reused.
	if !d.fs.IsDir(sess.WorkDir) && !d.fs.Exists(sess.WorkDir) {
		return MsgWrongCdArg, false
	}
	lines, err := d.fs.ReadLines(fsys.Resolve(sess.WorkDir, cmd.Args[0]))
	if err != nil {
		d.logger.Verbose("%s: cat: %v", sess.ID, err)
		return MsgWrongCatArg, false
	}
	return "[" + strings.Join(distinct(lines), ", ") + "]\n", true
}

// touch reports size and creation time of an existing file.
func (d *Dispatcher) touch(sess *session.Session, cmd command.Command) (string, bool) {
	if len(cmd.Args) != 1 {
		return MsgWrongCommand, false
	}
	target := fsys.Resolve(sess.WorkDir, cmd.Args[0])
	if !d.fs.Exists(target) {
		return MsgWrongTouchArg, false
	}
	attrs, err := d.fs.Attributes(target)
	if err != nil {
		d.logger.Verbose("%s: touch: %v", sess.ID, err)
		return MsgWrongTouchArg, false
	}
	return FormatAttributes(attrs), true
}

// FormatAttributes renders the touch reply for attrs.
func FormatAttributes(attrs fsys.Attributes) string {
	return fmt.Sprintf("size  = %d byte;  create time%s\n",
		attrs.Size, attrs.Created.UTC().Format(time.RFC3339Nano))
}

func distinct(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := lines[:0:0]
	for _, l := range lines {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
