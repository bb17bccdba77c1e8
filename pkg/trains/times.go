package trains

import (
	"fmt"
	"time"

	"github.com/cinsalaco/roydon-crossing/pkg/util"
)

// DefaultPastGrace is how far behind "now" a scheduled time may fall before it
// is treated as belonging to tomorrow (on resolve) or evicted (on query). The
// same value is used on the realtime and bulk paths.
const DefaultPastGrace = 5 * time.Minute

// DefaultHorizon is the forward window served to callers.
const DefaultHorizon = 90 * time.Minute

// ParseRailTime parses the HH:MM or HH:MM:SS times used throughout Darwin
// schedule data.
func ParseRailTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	railTime, err := time.Parse("15:04:05", value)
	if err != nil {
		railTime, err = time.Parse("15:04", value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable time %q: %w", value, err)
	}

	return railTime, nil
}

// ResolveInstant anchors a time-of-day string onto a concrete date. Times more
// than grace behind now are assumed to be tomorrow's; a just-passed train stays
// on today so it is not misfiled a day ahead.
func ResolveInstant(now time.Time, value string, grace time.Duration) (time.Time, error) {
	railTime, err := ParseRailTime(value)
	if err != nil {
		return time.Time{}, err
	}

	instant := util.AddTimeToDate(now, railTime)

	if instant.Before(now.Add(-grace)) {
		instant = instant.AddDate(0, 0, 1)
	}

	return instant, nil
}
