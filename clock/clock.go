package clock

// Time of day arithmetic. Schedules repeat every day, so all clock
// times are minutes past midnight in [0, MinutesPerDay).

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// Parses an "HH:mm" string into minutes past midnight.
func Parse(s string) (int, error) {
	split := strings.Split(s, ":")
	if len(split) != 2 {
		return 0, fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hm := [2]int{}
	for i, str := range split {
		j, err := strconv.Atoi(str)
		if err != nil {
			return 0, fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hm[i] = j
	}

	if hm[0] < 0 || hm[0] > 23 {
		return 0, fmt.Errorf("invalid hour in '%s'", s)
	}

	if hm[1] < 0 || hm[1] > 59 {
		return 0, fmt.Errorf("invalid minute in '%s'", s)
	}

	return hm[0]*60 + hm[1], nil
}

// Formats minutes past midnight as "HH:mm". Values outside a single
// day wrap around.
func Format(minutes int) string {
	m := Normalize(minutes)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Maps any minute count onto [0, MinutesPerDay).
func Normalize(minutes int) int {
	m := minutes % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return m
}

// Advances a clock time by d minutes.
func Add(t int, d int) int {
	return Normalize(t + d)
}

// Minutes from current until the next occurrence of departure. A
// departure earlier in the day than current is taken to be tomorrow's
// run of the same service.
func Wait(current int, departure int) int {
	if departure >= current {
		return departure - current
	}
	return (MinutesPerDay - current) + departure
}

// Formats a duration in minutes as e.g. "9h05m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
