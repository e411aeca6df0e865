//go:build !linux

package fsys

import "time"

func birthTime(string) (time.Time, bool) { return time.Time{}, false }
