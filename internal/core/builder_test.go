package core

import (
	"testing"

	"fsbrowse/config"
	"fsbrowse/internal/transport"
	"fsbrowse/util"
)

// TestBuild_Serve verifies that Build produces a ServeMode for the
// default configuration.
func TestBuild_Serve(t *testing.T) {
	cfg := config.Default()
	cfg.Root = "/srv/files"
	cfg.MaxSessions = 8

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	sm, ok := mode.(*ServeMode)
	if !ok {
		t.Fatalf("expected *ServeMode, got %T", mode)
	}
	if sm.Options.Address != "0.0.0.0:8189" {
		t.Errorf("Address = %q", sm.Options.Address)
	}
	if sm.Options.Root != "/srv/files" || sm.Options.MaxSessions != 8 {
		t.Errorf("options not carried over: %+v", sm.Options)
	}
	if sm.Metrics == nil {
		t.Error("metrics collector should always be created")
	}
}

// TestBuild_Connect verifies Build produces a ConnectMode with the
// default port filled in.
func TestBuild_Connect(t *testing.T) {
	cfg := config.Default()
	cfg.Connect = "files.example.com"

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	cm, ok := mode.(*ConnectMode)
	if !ok {
		t.Fatalf("expected *ConnectMode, got %T", mode)
	}
	if cm.Address != "files.example.com:8189" {
		t.Errorf("Address = %q", cm.Address)
	}
	rd, ok := cm.Dialer.(*transport.RetryDialer)
	if !ok {
		t.Fatalf("default retries should wrap the dialer, got %T", cm.Dialer)
	}
	if rd.Policy.Attempts != config.DefaultRetries+1 {
		t.Errorf("Attempts = %d, want %d", rd.Policy.Attempts, config.DefaultRetries+1)
	}
	if rd.Policy.Max != config.DefaultRetryBackoff {
		t.Errorf("Max = %v, want %v", rd.Policy.Max, config.DefaultRetryBackoff)
	}
}

// TestBuild_ConnectNoRetries verifies Retries=0 dials exactly once.
func TestBuild_ConnectNoRetries(t *testing.T) {
	cfg := config.Default()
	cfg.Connect = "127.0.0.1:9000"
	cfg.Retries = 0

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mode.(*ConnectMode).Dialer.(*transport.TCPDialer); !ok {
		t.Errorf("expected a bare *TCPDialer")
	}
}

// TestBuild_BadTarget verifies an unparsable target is rejected.
func TestBuild_BadTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Connect = "host:notaport"

	if _, err := Build(cfg, util.NewLogger(0)); err == nil {
		t.Fatal("expected error for bad target")
	}
}
