package core

import (
	"fmt"

	"fsbrowse/config"
	"fsbrowse/internal/metrics"
	"fsbrowse/internal/retry"
	"fsbrowse/internal/server"
	"fsbrowse/internal/transport"
	"fsbrowse/util"
)

// Build constructs the appropriate Mode from a validated configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.IsClient() {
		return buildConnect(cfg, logger)
	}
	return buildServe(cfg, logger), nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildServe(cfg *config.Config, logger *util.Logger) *ServeMode {
	return &ServeMode{
		Options: server.Options{
			Address:      cfg.ListenAddr(),
			Root:         cfg.Root,
			MaxSessions:  cfg.MaxSessions,
			MaxLineBytes: cfg.MaxLineBytes,
		},
		MetricsAddr: cfg.MetricsAddr,
		Metrics:     metrics.New(),
		Logger:      logger,
	}
}

func buildConnect(cfg *config.Config, logger *util.Logger) (Mode, error) {
	host, port, err := config.ParseTarget(cfg.Connect)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &ConnectMode{
		Dialer:  buildDialer(cfg, logger),
		Address: util.FormatAddr(host, port),
		Logger:  logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer wraps a TCP dialer in the retry policy from cfg.
// Retries counts redials, so the attempt budget is Retries+1.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	tcp := &transport.TCPDialer{Timeout: cfg.Timeout}
	if cfg.Retries == 0 {
		return tcp
	}
	return &transport.RetryDialer{
		Dialer: tcp,
		Policy: retry.Policy{
			Max:      config.DefaultRetryBackoff,
			Attempts: cfg.Retries + 1,
			Jitter:   0.25,
		},
		Logger: logger,
	}
}
