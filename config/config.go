// Package config defines the runtime configuration for fsbrowse and
// validates it before any socket is opened.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	ncerr "fsbrowse/internal/errors"
	"fsbrowse/util"
)

// Config holds every tuneable for one fsbrowse process.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Root         string `yaml:"root"` // initial working directory of every session
	MaxSessions  int    `yaml:"max_sessions"`
	MaxLineBytes int    `yaml:"max_line_bytes"`
	MetricsAddr  string `yaml:"metrics_addr"` // host:port for /metrics, "" = off

	// ── Client ───────────────────────────────────────────────────────
	Connect string        `yaml:"connect"` // host[:port]; non-empty selects connect mode
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose int `yaml:"verbose"`

	ConfigFile string `yaml:"-"`
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		Root:         DefaultRoot,
		MaxLineBytes: DefaultMaxLineBytes,
		Timeout:      DefaultConnTimeout,
		Retries:      DefaultRetries,
		Verbose:      1,
	}
}

// ListenAddr is the server bind address.
func (c *Config) ListenAddr() string {
	return util.FormatAddr(c.Host, c.Port)
}

// IsClient reports whether the process should connect to a server
// rather than run one.
func (c *Config) IsClient() bool { return c.Connect != "" }

// ── Target parser ────────────────────────────────────────────────────

// targetRe matches host[:port] and [v6-host][:port].
var targetRe = regexp.MustCompile(`^(?:\[([^\]]+)\]|([^:\[\]]+))(?::(\d+))?$`)

// ParseTarget extracts host and port from a string such as
// "files.example.com:8189".  Port defaults to DefaultPort.
func ParseTarget(spec string) (host string, port int, err error) {
	m := targetRe.FindStringSubmatch(spec)
	if m == nil {
		return "", 0, fmt.Errorf("invalid target %q: expected host[:port]", spec)
	}
	host = m[1] + m[2]
	port = DefaultPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", 0, fmt.Errorf("invalid target port %q", m[3])
		}
	}
	return host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.  The
// returned error is a *errors.ConfigError.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() *ncerr.ConfigError {
	if c.Verbose < 0 {
		return &ncerr.ConfigError{Field: "verbose", Value: c.Verbose, Message: "must not be negative"}
	}
	if c.IsClient() {
		if _, _, err := ParseTarget(c.Connect); err != nil {
			return &ncerr.ConfigError{
				Field: "connect", Value: c.Connect, Message: err.Error(),
				Hint: "use host or host:port, e.g. -c localhost:8189",
			}
		}
		if c.Timeout < 0 {
			return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
		}
		if c.Retries < 0 {
			return &ncerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
		}
		return nil
	}

	if c.Port < 0 || c.Port > 65535 {
		return &ncerr.ConfigError{
			Field: "port", Value: c.Port, Message: "out of range 0-65535",
			Hint: "0 picks a free port",
		}
	}
	if c.Root == "" {
		return &ncerr.ConfigError{
			Field: "root", Message: "server root is required",
			Hint: "point -r at the directory clients should start in",
		}
	}
	fi, err := os.Stat(c.Root)
	switch {
	case err != nil:
		return &ncerr.ConfigError{
			Field: "root", Value: c.Root, Message: "cannot access server root: " + unwrapPathErr(err),
			Hint: fmt.Sprintf("create it first (mkdir %s) or pass a different -r", c.Root),
		}
	case !fi.IsDir():
		return &ncerr.ConfigError{Field: "root", Value: c.Root, Message: "server root is not a directory"}
	}
	if c.MaxSessions < 0 {
		return &ncerr.ConfigError{
			Field: "max-sessions", Value: c.MaxSessions, Message: "must not be negative",
			Hint: "0 means unlimited",
		}
	}
	if c.MaxLineBytes < 0 {
		return &ncerr.ConfigError{
			Field: "max-line", Value: c.MaxLineBytes, Message: "must not be negative",
			Hint: fmt.Sprintf("0 selects the default of %d bytes", DefaultMaxLineBytes),
		}
	}
	if c.MetricsAddr != "" {
		if _, _, err := util.SplitAddr(c.MetricsAddr); err != nil {
			return &ncerr.ConfigError{
				Field: "metrics-addr", Value: c.MetricsAddr, Message: err.Error(),
				Hint: "use host:port, e.g. 127.0.0.1:9189",
			}
		}
	}
	return nil
}

func unwrapPathErr(err error) string {
	var pe *os.PathError
	if ncerr.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
