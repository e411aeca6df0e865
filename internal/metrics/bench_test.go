package metrics

import "testing"

func BenchmarkCollector_CommandHandled(b *testing.B) {
	c := New()
	verbs := []string{VerbLs, VerbCd, VerbCat, VerbTouch, "pwd"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.CommandHandled(verbs[i%len(verbs)], i%7 == 0)
	}
}

// BenchmarkCollector_CommandHandledParallel checks the per-verb counters
// with concurrent writers.
func BenchmarkCollector_CommandHandledParallel(b *testing.B) {
	c := New()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.CommandHandled(VerbCat, false)
		}
	})
}

func BenchmarkCollector_SessionTraffic(b *testing.B) {
	c := New()
	for i := 0; i < b.N; i++ {
		c.ConnectionOpened()
		c.BytesReceived(3)
		c.BytesSent(64)
		c.ConnectionClosed()
	}
}

// BenchmarkCollector_JSON is the cost of the shutdown totals line.
func BenchmarkCollector_JSON(b *testing.B) {
	c := New()
	c.ConnectionOpened()
	c.CommandHandled(VerbLs, false)
	c.RecordError("read: connection reset by peer")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.JSON()
	}
}

func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	for i := 0; i < b.N; i++ {
		c.ConnectionOpened()
		c.CommandHandled(VerbTouch, true)
		c.BytesSent(64)
	}
}
