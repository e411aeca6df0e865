// Package core is the orchestration layer.  It turns a validated
// Config into one of the two things an fsbrowse process can do: serve
// a directory tree, or connect a terminal to a server that does.
//
// Architecture layers (bottom → top):
//
//	fsys, command  →  dispatch  →  session, reactor  →  server  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode of fsbrowse.  Each mode owns its
// full lifecycle from socket setup to teardown and returns when ctx is
// cancelled or its work is done.
type Mode interface {
	Run(ctx context.Context) error
}
