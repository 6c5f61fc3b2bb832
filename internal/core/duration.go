package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Retry intervals use the time portion of ISO 8601 durations (PT1S, PT5M,
// PT1H30M). Date components are not accepted; policy pauses never span days.
var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// ParseISO8601Duration converts an ISO 8601 duration into a time.Duration.
// Zero-length durations are rejected; an absent interval field is how a
// policy expresses "no pause".
func ParseISO8601Duration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid ISO 8601 duration: %q", s)
	}

	var d time.Duration
	if m[1] != "" {
		hours, _ := strconv.Atoi(m[1])
		d += time.Duration(hours) * time.Hour
	}
	if m[2] != "" {
		minutes, _ := strconv.Atoi(m[2])
		d += time.Duration(minutes) * time.Minute
	}
	if m[3] != "" {
		seconds, _ := strconv.ParseFloat(m[3], 64)
		d += time.Duration(seconds * float64(time.Second))
	}

	if d == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: %q (zero duration)", s)
	}
	return d, nil
}
