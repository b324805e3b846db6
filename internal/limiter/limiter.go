// Package limiter narrows the loaded input to a window of records before the
// table pipeline sees it.
package limiter

import (
	"errors"
	"fmt"
)

// ErrLimitAndTail is returned by Validate when both Limit and Tail are set.
var ErrLimitAndTail = errors.New("--limit and --tail are mutually exclusive")

// Config selects the input window.
type Config struct {
	Limit  int // keep at most this many records (0 = all)
	Offset int // skip the first N records
	Tail   int // keep only the last N records; Offset is ignored
}

// Validate rejects negative values and Limit combined with Tail.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		v    int
	}{{"--limit", c.Limit}, {"--offset", c.Offset}, {"--tail", c.Tail}} {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative, got %d", f.name, f.v))
		}
	}
	if c.Limit > 0 && c.Tail > 0 {
		errs = append(errs, ErrLimitAndTail)
	}
	return errors.Join(errs...)
}

// IsActive reports whether any window is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the half-open window [start, end) over n records.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(max(c.Offset, 0), n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the window of rows. The result shares rows' backing array.
func Apply[T any](c Config, rows []T) []T {
	if !c.IsActive() {
		return rows
	}
	start, end := c.Bounds(len(rows))
	return rows[start:end]
}
