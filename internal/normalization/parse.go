package normalization

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. The first matches the source
// dataset's week column (YYYYMMDD).
var timestampLayouts = []string{
	"20060102",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses s with the known layouts and returns UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a finite float. NaN and Inf are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parsePromotion resolves a promotion indicator.
// ok is false when the value was missing or unrecognized (resolved to false).
func parsePromotion(s string) (promoted bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true, true
	case "0", "false", "f", "no", "n":
		return false, true
	}
	if v, isNum := parseNumber(s); isNum {
		return v != 0, true
	}
	return false, false
}
