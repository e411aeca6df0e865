package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// capture redirects stdout for the duration of a test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stdout
	stdout = buf
	t.Cleanup(func() { stdout = prev })
	return buf
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out := capture(t)
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "fsbrowse ") {
		t.Errorf("version output = %q", out.String())
	}
}

// TestExecute_Help verifies --help prints usage and returns.
func TestExecute_Help(t *testing.T) {
	out := capture(t)
	if err := Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"--root", "--connect", "touch <file>"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

// TestExecute_DryRun verifies --dry-run validates and prints the
// effective configuration.
func TestExecute_DryRun(t *testing.T) {
	out := capture(t)
	root := t.TempDir()
	err := Execute(context.Background(), []string{
		"-r", root, "-p", "9000", "--max-sessions", "4", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"port: 9000", "max_sessions: 4", "root: " + root} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dry-run output missing %q:\n%s", want, out.String())
		}
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	capture(t)
	err := Execute(context.Background(), []string{
		"-r", filepath.Join(t.TempDir(), "missing"), "--dry-run",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "hint:") {
		t.Errorf("error should carry a hint: %v", err)
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	capture(t)
	if err := Execute(context.Background(), []string{"--nonexistent-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_StrayArgument verifies positional arguments are rejected.
func TestExecute_StrayArgument(t *testing.T) {
	capture(t)
	if err := Execute(context.Background(), []string{"-r", t.TempDir(), "ls"}); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

// TestExecute_Precedence verifies flags > env > file > defaults.
func TestExecute_Precedence(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(t.TempDir(), "fsbrowse.yaml")
	doc := "root: " + root + "\nport: 7000\nmax_sessions: 3\nmax_line_bytes: 512\n"
	if err := os.WriteFile(file, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FSBROWSE_PORT", "7100")
	t.Setenv("FSBROWSE_MAX_SESSIONS", "5")

	out := capture(t)
	err := Execute(context.Background(), []string{
		"--config", file, "--max-sessions", "9", "--dry-run",
	})
	if err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{
		"max_sessions: 9",     // flag beats env
		"port: 7100",          // env beats file
		"max_line_bytes: 512", // file beats default
		"host: 0.0.0.0",       // default
	} {
		if !strings.Contains(got, want) {
			t.Errorf("effective config missing %q:\n%s", want, got)
		}
	}
}

// TestExecute_ConfigFromEnv verifies FSBROWSE_CONFIG names the file
// when --config is absent.
func TestExecute_ConfigFromEnv(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(t.TempDir(), "fsbrowse.yaml")
	os.WriteFile(file, []byte("root: "+root+"\n"), 0o644)
	t.Setenv("FSBROWSE_CONFIG", file)

	out := capture(t)
	if err := Execute(context.Background(), []string{"--dry-run"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "root: "+root) {
		t.Errorf("config file from env not applied:\n%s", out.String())
	}
}

// TestExecute_Serve verifies the server starts and stops with ctx.
func TestExecute_Serve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, []string{"-l", "127.0.0.1", "-p", "0", "-r", t.TempDir(), "-q"})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
