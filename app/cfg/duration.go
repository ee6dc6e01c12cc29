package cfg

import (
	"strconv"
	"time"
)

// parseDuration accepts Go durations ("90s", "15m") and bare numbers of
// seconds ("3", "0").
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
