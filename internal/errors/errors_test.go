package errors

import (
	"fmt"
	"io"
	"net"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "example.com:8189", Err: io.EOF, Retryable: true},
			want: "dial example.com:8189: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "listen", Addr: ":8189", Err: fmt.Errorf("bind failed")},
			want: "listen :8189: bind failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "read", Addr: "x", Err: io.EOF}
	if !Is(err, io.EOF) {
		t.Error("should unwrap to io.EOF")
	}
}

func TestPathError(t *testing.T) {
	err := WrapPath("read", "serverDir/a.txt", os.ErrNotExist)
	want := "read serverDir/a.txt: file does not exist"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, os.ErrNotExist) {
		t.Error("should unwrap to os.ErrNotExist")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "port",
				Value:   99999,
				Message: "out of range 1-65535",
				Hint:    "use a port between 1 and 65535",
			},
			want: "config: --port=99999: out of range 1-65535\n  hint: use a port between 1 and 65535",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "root",
				Message: "required",
			},
			want: "config: --root: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap("dial", "10.0.0.1:8189", unix.ECONNREFUSED)

	if err.Op != "dial" || err.Addr != "10.0.0.1:8189" {
		t.Errorf("wrong fields: Op=%q Addr=%q", err.Op, err.Addr)
	}
	if !Is(err, unix.ECONNREFUSED) {
		t.Error("should unwrap to ECONNREFUSED")
	}
	if !err.Retryable {
		t.Error("connection refused should be retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: true}, true},
		{"non-retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: false}, false},
		{"plain error", fmt.Errorf("boom"), false},
		{"refused", fmt.Errorf("dial: %w", unix.ECONNREFUSED), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyRetryable_NetOpError(t *testing.T) {
	opErr := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &net.DNSError{IsTemporary: true},
	}
	if !classifyRetryable(opErr) {
		t.Error("temporary OpError should be retryable")
	}
}

func TestIsWouldBlock(t *testing.T) {
	if !IsWouldBlock(unix.EAGAIN) {
		t.Error("EAGAIN should be would-block")
	}
	if !IsWouldBlock(fmt.Errorf("read: %w", unix.EAGAIN)) {
		t.Error("wrapped EAGAIN should be would-block")
	}
	if IsWouldBlock(unix.ECONNRESET) {
		t.Error("ECONNRESET should not be would-block")
	}
}

func TestIsPeerGone(t *testing.T) {
	for _, err := range []error{unix.ECONNRESET, unix.EPIPE, unix.ENOTCONN} {
		if !IsPeerGone(err) {
			t.Errorf("%v should mean peer gone", err)
		}
	}
	if IsPeerGone(unix.EAGAIN) {
		t.Error("EAGAIN should not mean peer gone")
	}
}

func TestIsAcceptTransient(t *testing.T) {
	if !IsAcceptTransient(unix.ECONNABORTED) {
		t.Error("ECONNABORTED should be transient")
	}
	if IsAcceptTransient(unix.EMFILE) {
		t.Error("EMFILE should not be transient")
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrServerClosed, ErrNotListening, ErrLineTooLong,
		ErrSessionLimit, ErrTimeout,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
