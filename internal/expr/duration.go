package expr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrNotFloorable    = errors.New("duration can not be floored")
)

// isoDuration matches the calendar subset of ISO-8601 durations: P1Y2M3W4DT5H6M7S
var isoDuration = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

type span int

const (
	spanYear span = iota
	spanMonth
	spanWeek
	spanDay
	spanHour
	spanMinute
	spanSecond
	spanCount
)

var spanLetters = [spanCount]string{"Y", "M", "W", "D", "H", "M", "S"}

const (
	maxYears = 10000
	// maxClockSeconds is the longest clock part a time.Duration can hold.
	maxClockSeconds = int64(math.MaxInt64 / int64(time.Second))
)

// spanLimits caps each calendar unit at maxYears worth of that unit.
var spanLimits = [spanHour]int{maxYears, maxYears * 12, maxYears * 53, maxYears * 366}

// Duration is a calendar aware span such as P1D or PT6H.
type Duration struct {
	parts [spanCount]int
}

// ParseDuration parses an ISO-8601 duration string.
func ParseDuration(s string) (Duration, error) {
	match := isoDuration.FindStringSubmatch(s)
	if match == nil || s == "P" || strings.HasSuffix(s, "T") {
		return Duration{}, fmt.Errorf("%w: '%s'", ErrInvalidDuration, s)
	}
	var d Duration
	for i := range d.parts {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return Duration{}, fmt.Errorf("%w: '%s'", ErrInvalidDuration, s)
		}
		d.parts[i] = n
	}
	if d.IsZero() {
		return Duration{}, fmt.Errorf("%w: '%s' has zero length", ErrInvalidDuration, s)
	}
	for i, limit := range spanLimits {
		if d.parts[i] > limit {
			return Duration{}, fmt.Errorf("%w: '%s' is out of range", ErrInvalidDuration, s)
		}
	}
	if d.parts[spanHour] > int(maxClockSeconds/3600) || d.parts[spanMinute] > int(maxClockSeconds/60) ||
		int64(d.parts[spanSecond]) > maxClockSeconds || d.clockSeconds() > maxClockSeconds {
		return Duration{}, fmt.Errorf("%w: '%s' is out of range", ErrInvalidDuration, s)
	}
	return d, nil
}

func (d Duration) clockSeconds() int64 {
	return int64(d.parts[spanHour])*3600 + int64(d.parts[spanMinute])*60 + int64(d.parts[spanSecond])
}

// MustParseDuration is ParseDuration for literals known to be valid.
func MustParseDuration(s string) Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Duration) IsZero() bool {
	return d.parts == [spanCount]int{}
}

// String returns the canonical form, e.g. P1W, P3M, PT1H.
func (d Duration) String() string {
	if d.IsZero() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("P")
	for i := spanYear; i < spanCount; i++ {
		if i == spanHour && (d.parts[spanHour] != 0 || d.parts[spanMinute] != 0 || d.parts[spanSecond] != 0) {
			sb.WriteString("T")
		}
		if d.parts[i] != 0 {
			sb.WriteString(strconv.Itoa(d.parts[i]))
			sb.WriteString(spanLetters[i])
		}
	}
	return sb.String()
}

func (d Duration) Equals(other Duration) bool {
	return d.parts == other.parts
}

// singleSpan reports the only non zero unit of d.
func (d Duration) singleSpan() (span, int, bool) {
	found := -1
	for i, v := range d.parts {
		if v == 0 {
			continue
		}
		if found >= 0 {
			return 0, 0, false
		}
		found = i
	}
	if found < 0 {
		return 0, 0, false
	}
	return span(found), d.parts[found], true
}

// IsFloorable reports whether buckets of d tile the enclosing unit evenly.
func (d Duration) IsFloorable() bool {
	s, n, ok := d.singleSpan()
	if !ok {
		return false
	}
	switch s {
	case spanYear:
		return n == 1
	case spanMonth:
		return 12%n == 0
	case spanWeek, spanDay:
		return n == 1
	case spanHour:
		return 24%n == 0
	case spanMinute, spanSecond:
		return 60%n == 0
	}
	return false
}

// Floor returns the start of the d-sized bucket containing t in loc.
// Weeks start on Monday.
func (d Duration) Floor(t time.Time, loc *time.Location) (time.Time, error) {
	if !d.IsFloorable() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotFloorable, d)
	}
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	s, n, _ := d.singleSpan()
	y, m, day := t.Date()
	switch s {
	case spanYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), nil
	case spanMonth:
		month := int(m) - 1
		month -= month % n
		return time.Date(y, time.Month(month+1), 1, 0, 0, 0, 0, loc), nil
	case spanWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, day-offset, 0, 0, 0, 0, loc), nil
	case spanDay:
		return time.Date(y, m, day, 0, 0, 0, 0, loc), nil
	case spanHour:
		return time.Date(y, m, day, t.Hour()-t.Hour()%n, 0, 0, 0, loc), nil
	case spanMinute:
		return time.Date(y, m, day, t.Hour(), t.Minute()-t.Minute()%n, 0, 0, loc), nil
	default:
		return time.Date(y, m, day, t.Hour(), t.Minute(), t.Second()-t.Second()%n, 0, loc), nil
	}
}

// Shift moves t by step times d. Month arithmetic clamps to the last day of the
// target month, so Jan 31 + P1M is Feb 28/29.
func (d Duration) Shift(t time.Time, loc *time.Location, step int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	months := step * (d.parts[spanYear]*12 + d.parts[spanMonth])
	if months != 0 {
		y, m, day := t.Date()
		total := int(m) - 1 + months
		ty := y + floorDiv(total, 12)
		tm := time.Month(total - floorDiv(total, 12)*12 + 1)
		if last := daysIn(ty, tm, loc); day > last {
			day = last
		}
		t = time.Date(ty, tm, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	if days := step * (d.parts[spanWeek]*7 + d.parts[spanDay]); days != 0 {
		t = t.AddDate(0, 0, days)
	}
	// step*clock may exceed a time.Duration, so add it in pieces
	secs := int64(step) * d.clockSeconds()
	for secs != 0 {
		n := max(min(secs, maxClockSeconds), -maxClockSeconds)
		t = t.Add(time.Duration(n) * time.Second)
		secs -= n
	}
	return t
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
