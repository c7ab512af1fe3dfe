package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseEstimate converts a duration estimate like "2h", "90m" or "1h30m"
// into whole minutes. A bare number is taken as minutes.
func ParseEstimate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration estimate")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration estimate %q", s)
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration estimate %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration estimate %q", s)
	}
	return int(d.Minutes()), nil
}
