package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"fsbrowse/config"
	"fsbrowse/internal/metrics"
	"fsbrowse/internal/server"
	"fsbrowse/util"
)

// Endpoints are the addresses a ServeMode actually bound.
type Endpoints struct {
	Serve   net.Addr
	Metrics net.Addr // nil when the metrics endpoint is off
}

// ServeMode runs the file-browsing server and, optionally, a Prometheus
// endpoint next to it.
type ServeMode struct {
	Options     server.Options
	MetricsAddr string // host:port; "" disables /metrics
	Metrics     *metrics.Collector
	Logger      *util.Logger

	// Ready, if set, is called once every socket is bound and before
	// the first client is served.
	Ready func(Endpoints)
}

// Run binds the listener and serves until ctx is cancelled.  A bind
// failure aborts before anything is served.
func (m *ServeMode) Run(ctx context.Context) error {
	srv := server.New(m.Options, m.Logger, m.Metrics)
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("listen on %s: %w", m.Options.Address, err)
	}
	defer srv.Close()

	ep := Endpoints{Serve: srv.Addr()}
	if m.MetricsAddr != "" {
		addr, stop, err := m.serveMetrics()
		if err != nil {
			return err
		}
		defer stop()
		ep.Metrics = addr
	}

	if m.Ready != nil {
		m.Ready(ep)
	}
	return srv.Serve(ctx)
}

// serveMetrics exposes the collector, plus Go runtime and process
// metrics, on MetricsAddr/metrics.
func (m *ServeMode) serveMetrics() (net.Addr, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := m.Metrics.Register(reg); err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}

	ln, err := net.Listen("tcp", m.MetricsAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen on %s: %w", m.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	hs := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Logger.Warn("metrics endpoint: %v", err)
		}
	}()
	m.Logger.Verbose("metrics on http://%s/metrics", ln.Addr())

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultGracePeriod)
		defer cancel()
		if err := hs.Shutdown(ctx); err != nil {
			m.Logger.Warn("metrics shutdown: %v", err)
		}
	}
	return ln.Addr(), stop, nil
}
