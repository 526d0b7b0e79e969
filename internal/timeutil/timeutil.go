package timeutil

import (
	"fmt"
	"time"
)

// epochMillisFloor separates epoch seconds from epoch milliseconds: the
// upstream event feed mixes both, and any value below 10 billion read as
// seconds stays before the year 2286.
const epochMillisFloor = 10_000_000_000

// Layouts accepted for wall-clock input, tried in order.
var parseLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

// Zone converts between wall-clock strings in one fixed civil timezone and
// absolute instants. All comparisons elsewhere happen on absolute time;
// the zone only matters at the parse/format boundary.
type Zone struct {
	loc *time.Location
}

// NewZone loads the named IANA timezone.
func NewZone(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// ParseLocal parses a wall-clock string in the zone into an absolute instant.
func (z *Zone) ParseLocal(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, z.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// FormatLocal renders an instant as a local wall-clock string.
func (z *Zone) FormatLocal(t time.Time) string {
	return t.In(z.loc).Format("2006-01-02 15:04:05")
}

// FormatLocalDate renders an instant's local calendar date (YYYY-MM-DD).
func (z *Zone) FormatLocalDate(t time.Time) string {
	return t.In(z.loc).Format("2006-01-02")
}

// FromEpoch converts an epoch timestamp in seconds or milliseconds to an
// absolute instant.
func FromEpoch(v int64) time.Time {
	if v >= epochMillisFloor {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}
