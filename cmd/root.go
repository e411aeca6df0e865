// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"fsbrowse/config"
	"fsbrowse/internal/core"
	"fsbrowse/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X fsbrowse/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version, --help and --dry-run output.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs the selected mode.  With no arguments it
// serves ./serverDir on 0.0.0.0:8189.
func Execute(ctx context.Context, args []string) error {
	cli := config.Default()
	fs := flag.NewFlagSet("fsbrowse", flag.ContinueOnError)

	// ── server ───────────────────────────────────────────────────
	fs.StringVarP(&cli.Host, "listen", "l", cli.Host, "Address to listen on")
	fs.IntVarP(&cli.Port, "port", "p", cli.Port, "Port to listen on (0 = any free port)")
	fs.StringVarP(&cli.Root, "root", "r", cli.Root, "Directory every session starts in")
	fs.IntVar(&cli.MaxSessions, "max-sessions", cli.MaxSessions, "Concurrent session limit (0 = unlimited)")
	fs.IntVar(&cli.MaxLineBytes, "max-line", cli.MaxLineBytes, "Longest command line accepted, in bytes")
	fs.StringVar(&cli.MetricsAddr, "metrics-addr", cli.MetricsAddr, "Serve Prometheus metrics on host:port")

	// ── client ───────────────────────────────────────────────────
	fs.StringVarP(&cli.Connect, "connect", "c", "", "Connect to a server at host[:port] instead of serving")
	fs.DurationVarP(&cli.Timeout, "timeout", "w", cli.Timeout, "Dial timeout")
	fs.IntVar(&cli.Retries, "retries", cli.Retries, "Redials while the server refuses connections")

	// ── general ──────────────────────────────────────────────────
	fs.StringVar(&cli.ConfigFile, "config", "", "YAML config file")
	fs.CountVarP(&cli.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	var quiet, showVersion, showHelp, dryRun bool
	fs.BoolVarP(&quiet, "quiet", "q", false, "Only print errors")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate and print the effective config, then exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "fsbrowse %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	// ── layer: defaults < file < env < flags ─────────────────────
	cfg := config.Default()
	if path := configPath(cli); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return err
		}
		cfg.ConfigFile = path
	}
	config.LoadFromEnv(cfg)
	fs.Visit(func(f *flag.Flag) { applyFlag(cfg, cli, f.Name) })
	if quiet {
		cfg.Verbose = 0
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		return printConfig(cfg)
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func configPath(cli *config.Config) string {
	if cli.ConfigFile != "" {
		return cli.ConfigFile
	}
	return os.Getenv("FSBROWSE_CONFIG")
}

// applyFlag copies one explicitly set flag from cli onto cfg.
func applyFlag(cfg, cli *config.Config, name string) {
	switch name {
	case "listen":
		cfg.Host = cli.Host
	case "port":
		cfg.Port = cli.Port
	case "root":
		cfg.Root = cli.Root
	case "max-sessions":
		cfg.MaxSessions = cli.MaxSessions
	case "max-line":
		cfg.MaxLineBytes = cli.MaxLineBytes
	case "metrics-addr":
		cfg.MetricsAddr = cli.MetricsAddr
	case "connect":
		cfg.Connect = cli.Connect
	case "timeout":
		cfg.Timeout = cli.Timeout
	case "retries":
		cfg.Retries = cli.Retries
	case "verbose":
		cfg.Verbose = cli.Verbose
	}
}

func printConfig(cfg *config.Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("dry-run: %w", err)
	}
	fmt.Fprintf(stdout, "# fsbrowse %s effective configuration\n", version)
	_, err = stdout.Write(out)
	return err
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stdout, `fsbrowse - Network File Browser v%s

Serves a directory tree to line-oriented TCP clients.

Usage:
  fsbrowse [options]                          Serve ./serverDir on :8189
  fsbrowse -r /srv/files -p 9000              Serve another tree
  fsbrowse -c host[:port]                     Connect to a server

Commands (one per line):
  ls                 list the current directory
  cd <dir>           change directory (no reply on success)
  cat <file>         print the file's distinct lines
  touch <file>       print size and creation time

Options:
`, version)
	fs.SetOutput(stdout)
	fs.PrintDefaults()
	fmt.Fprintf(stdout, `
Environment:
  FSBROWSE_HOST, FSBROWSE_PORT, FSBROWSE_ROOT, FSBROWSE_MAX_SESSIONS,
  FSBROWSE_MAX_LINE, FSBROWSE_METRICS_ADDR, FSBROWSE_CONNECT,
  FSBROWSE_TIMEOUT, FSBROWSE_RETRIES, FSBROWSE_VERBOSE, FSBROWSE_QUIET,
  FSBROWSE_CONFIG

Examples:
  fsbrowse -v --metrics-addr 127.0.0.1:9189   Serve with metrics
  printf 'ls\ncat notes.txt\n' | fsbrowse -c files.local
`)
}
