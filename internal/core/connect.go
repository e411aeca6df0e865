package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"fsbrowse/internal/transport"
	"fsbrowse/util"
)

// ConnectMode dials a server and relays stdin/stdout to it until either
// side is done.
type ConnectMode struct {
	Dialer  transport.Dialer
	Address string
	Logger  *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// interactive reports whether a person is typing: stdin is the real
// process stdin and it is a terminal.
func (m *ConnectMode) interactive() bool {
	return m.Stdin == nil && term.IsTerminal(int(os.Stdin.Fd()))
}

// Run dials the server and copies in both directions.  Piped input is
// sent in full and every reply read before Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())
	if m.interactive() {
		m.Logger.Info("connected to %s; commands: ls, cd <dir>, cat <file>, touch <file>; Ctrl-D quits",
			conn.RemoteAddr())
	}

	return util.BidirectionalCopy(ctx, conn, m.stdin(), m.stdout())
}
