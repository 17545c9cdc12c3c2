package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Matches: "2h ago", "30d ago", "2w ago", "1mo ago", "1y ago"
var relativeAgoRegex = regexp.MustCompile(`^(\d+)\s*(y|mo|w|d|h|m)\s*ago$`)

// Unix timestamps in seconds; nine digits keeps plain years out.
var unixSecondsRegex = regexp.MustCompile(`^\d{9,11}$`)

// Absolute layouts tried after the keywords, most specific first.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006 3:04:05 PM",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2 2006",
	"January 2, 2006",
}

// ParseDate parses the date expressions accepted for usage ranges.
// Supports: "now", "today", "yesterday", "3d ago", "monday", "last fri",
// "2019-01-01", "01/31/2019", RFC3339 and unix seconds. Weekday names resolve
// to the most recent such day, so ranges never point into the future.
func ParseDate(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date expression")
	}

	input := strings.ToLower(raw)

	switch input {
	case "now":
		return now, nil
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if t, ok := parseWeekday(input, now); ok {
		return t, nil
	}

	if matches := relativeAgoRegex.FindStringSubmatch(input); len(matches) == 3 {
		value, err := strconv.Atoi(matches[1])
		if err != nil || value < 1 {
			return time.Time{}, fmt.Errorf("invalid relative date %q", raw)
		}
		return subtractRelative(now, value, matches[2])
	}

	if unixSecondsRegex.MatchString(input) {
		secs, err := strconv.ParseInt(input, 10, 64)
		if err == nil {
			return time.Unix(secs, 0).In(now.Location()), nil
		}
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date expression %q", raw)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseWeekday(expr string, now time.Time) (time.Time, bool) {
	input := strings.TrimSpace(expr)
	if input == "" {
		return time.Time{}, false
	}

	last := false
	if strings.HasPrefix(input, "last ") {
		last = true
		input = strings.TrimSpace(strings.TrimPrefix(input, "last "))
	} else if strings.HasPrefix(input, "this ") {
		input = strings.TrimSpace(strings.TrimPrefix(input, "this "))
	}

	weekday, ok := weekdayMap[input]
	if !ok {
		return time.Time{}, false
	}

	base := startOfDay(now)
	delta := (int(base.Weekday()) - int(weekday) + 7) % 7
	if last && delta == 0 {
		delta = 7
	}

	return base.AddDate(0, 0, -delta), true
}

var weekdayMap = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

func subtractRelative(now time.Time, value int, unit string) (time.Time, error) {
	switch unit {
	case "y":
		return now.AddDate(-value, 0, 0), nil
	case "mo":
		return now.AddDate(0, -value, 0), nil
	case "w":
		return now.AddDate(0, 0, -7*value), nil
	case "d":
		return now.AddDate(0, 0, -value), nil
	case "h":
		return now.Add(-time.Duration(value) * time.Hour), nil
	case "m":
		return now.Add(-time.Duration(value) * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("invalid relative date unit %q", unit)
	}
}
