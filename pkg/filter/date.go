package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var relativePattern = regexp.MustCompile(`^(\d+)(m|h|d)$`)

var relativeUnits = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// Resolver is implemented by parameters whose value depends on the moment of
// evaluation. The evaluator resolves them before calling the comparator.
type Resolver interface {
	Resolve(now time.Time) any
}

// RelativeDate is a "last N units" date parameter, written {"last":"7d"}.
// It resolves to now minus the span each time a filter is evaluated, so a
// saved filter keeps its meaning across reloads.
type RelativeDate struct {
	Amount int
	Unit   string // "m", "h" or "d"
}

// ParseRelativeDate parses descriptors like "15m", "24h" or "7d". Spans too
// long to represent as a time.Duration are rejected.
func ParseRelativeDate(s string) (RelativeDate, error) {
	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return RelativeDate{}, fmt.Errorf("invalid relative date %q", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return RelativeDate{}, fmt.Errorf("invalid relative date %q: %w", s, err)
	}
	if n > math.MaxInt64/int64(relativeUnits[m[2]]) {
		return RelativeDate{}, fmt.Errorf("relative date %q is out of range", s)
	}
	return RelativeDate{Amount: int(n), Unit: m[2]}, nil
}

func (r RelativeDate) String() string {
	return strconv.Itoa(r.Amount) + r.Unit
}

// Duration returns the span covered by the descriptor, capped at the
// longest representable duration.
func (r RelativeDate) Duration() time.Duration {
	unit, ok := relativeUnits[r.Unit]
	if !ok {
		unit = relativeUnits["d"]
	}
	if int64(r.Amount) > math.MaxInt64/int64(unit) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(r.Amount) * unit
}

// Resolve returns the absolute lower bound now - Duration.
func (r RelativeDate) Resolve(now time.Time) any {
	return now.Add(-r.Duration()).UTC()
}
