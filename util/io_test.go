package util

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// lineServer answers every line with its upper-cased form and closes
// after the client half-closes, like the fsbrowse server does.
func lineServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			conn.Write([]byte(strings.ToUpper(sc.Text()) + "\n")) //nolint:errcheck
		}
	}()
	return ln
}

func TestBidirectionalCopy(t *testing.T) {
	ln := lineServer(t)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	input := bytes.NewBufferString("ls\ncat notes\n")
	output := &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// When input is exhausted the write side half-closes; the server
	// answers what it has, sees EOF and closes, ending the copy.
	if err := BidirectionalCopy(ctx, conn, input, output); err != nil {
		t.Fatalf("BidirectionalCopy: %v", err)
	}

	if got, want := output.String(), "LS\nCAT NOTES\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestBidirectionalCopy_Cancel(t *testing.T) {
	ln := lineServer(t)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	// A reader that never ends, like an idle terminal.
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- BidirectionalCopy(ctx, conn, pr, io.Discard) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancel should end the copy cleanly, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("BidirectionalCopy did not return after cancel")
	}
}

func TestIsHarmless(t *testing.T) {
	if !isHarmless(nil) {
		t.Error("nil should be harmless")
	}
	if !isHarmless(io.EOF) {
		t.Error("io.EOF should be harmless")
	}
	if !isHarmless(net.ErrClosed) {
		t.Error("net.ErrClosed should be harmless")
	}
	if isHarmless(io.ErrUnexpectedEOF) {
		t.Error("ErrUnexpectedEOF should NOT be harmless")
	}
}
