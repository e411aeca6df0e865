package retry

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkPolicy_FirstDialSucceeds is the overhead a client pays when
// the server is already up.
func BenchmarkPolicy_FirstDialSucceeds(b *testing.B) {
	p := Policy{Attempts: 4, Jitter: 0.25}
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		p.Do(ctx, func(_ int) error { return nil }) //nolint:errcheck
	}
}

func BenchmarkPolicy_Permanent(b *testing.B) {
	p := Policy{Attempts: 4}
	ctx := context.Background()
	bad := Permanent(fmt.Errorf("bad port"))

	for i := 0; i < b.N; i++ {
		p.Do(ctx, func(_ int) error { return bad }) //nolint:errcheck
	}
}

func BenchmarkPolicy_Wait(b *testing.B) {
	p := Policy{}
	for i := 0; i < b.N; i++ {
		_ = jitter(p.Wait(i%8+1), 0.25)
	}
}
