package core

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"fsbrowse/internal/server"
	"fsbrowse/internal/transport"
	"fsbrowse/util"
)

// TestConnectMode_Browse pipes a command script through ConnectMode to
// a real server and checks every reply arrives.
func TestConnectMode_Browse(t *testing.T) {
	ep := startServe(t, &ServeMode{
		Options: server.Options{Address: "127.0.0.1:0", Root: serveRoot(t)},
		Logger:  util.NewLogger(0),
	})

	input := bytes.NewBufferString("ls\ncd b\nls\ncd missing\ncat\n")
	output := &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mode := &ConnectMode{
		Dialer:  &transport.TCPDialer{Timeout: 2 * time.Second},
		Address: ep.Serve.String(),
		Logger:  util.NewLogger(0),
		Stdin:   input,
		Stdout:  output,
	}
	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "a, b, c\n\nWrong arg for cd command\nWrong command\n"
	if got := output.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestConnectMode_Refused verifies a dead target fails cleanly.
func TestConnectMode_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	mode := &ConnectMode{
		Dialer:  &transport.TCPDialer{Timeout: time.Second},
		Address: addr,
		Logger:  util.NewLogger(0),
		Stdin:   &bytes.Buffer{},
		Stdout:  &bytes.Buffer{},
	}
	err = mode.Run(context.Background())
	if err == nil {
		t.Fatal("expected connection refused")
	}
	if want := fmt.Sprintf("connect to %s", addr); !bytes.Contains([]byte(err.Error()), []byte(want)) {
		t.Errorf("error %q should mention %q", err, want)
	}
}
