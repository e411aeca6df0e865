package dispatch

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	billyutil "github.com/go-git/go-billy/v5/util"

	"fsbrowse/internal/fsys"
	"fsbrowse/internal/metrics"
)

// BenchmarkDispatch_Cat measures dedup and rendering over an in-memory
// file so storage latency stays out of the number.
func BenchmarkDispatch_Cat(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteByte(byte('a' + i%26))
		sb.WriteByte('\n')
	}
	store := memfs.New()
	if err := billyutil.WriteFile(store, "/srv/f", []byte(sb.String()), 0o644); err != nil {
		b.Fatal(err)
	}
	d := New(fsys.New(store), nil, metrics.New())
	sess := newSession("/srv")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Dispatch(sess, "cat f")
	}
}

// BenchmarkDispatch_Ignored measures the unknown-verb path.
func BenchmarkDispatch_Ignored(b *testing.B) {
	d := New(fsys.New(memfs.New()), nil, nil)
	sess := newSession("/")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Dispatch(sess, "pwd")
	}
}
