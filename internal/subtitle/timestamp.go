package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Timestamp is a time of day with millisecond resolution, stored as
// milliseconds since 00:00:00,000.
type Timestamp int64

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute

	// MaxTimestamp is 23:59:59,999.
	MaxTimestamp Timestamp = 24*msPerHour - 1
)

var timestampRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})$`)

// NewTimestamp builds a timestamp from its components, rejecting values
// outside hours 0-23, minutes 0-59, seconds 0-59, milliseconds 0-999.
func NewTimestamp(hours, minutes, seconds, millis int) (Timestamp, error) {
	switch {
	case hours < 0 || hours > 23:
		return 0, fmt.Errorf("hours out of range: %d", hours)
	case minutes < 0 || minutes > 59:
		return 0, fmt.Errorf("minutes out of range: %d", minutes)
	case seconds < 0 || seconds > 59:
		return 0, fmt.Errorf("seconds out of range: %d", seconds)
	case millis < 0 || millis > 999:
		return 0, fmt.Errorf("milliseconds out of range: %d", millis)
	}

	return Timestamp(hours*msPerHour +
		minutes*msPerMinute +
		seconds*msPerSecond +
		millis), nil
}

// ParseTimestamp parses "HH:MM:SS,mmm" (a "." separator is also accepted).
func ParseTimestamp(s string) (Timestamp, error) {
	m := timestampRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	return timestampFromParts(m[1], m[2], m[3], m[4])
}

func timestampFromParts(hours, minutes, seconds, millis string) (Timestamp, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	return NewTimestamp(h, m, s, ms)
}

func (t Timestamp) Components() (hours, minutes, seconds, millis int) {
	v := int(t)
	hours = v / msPerHour
	minutes = v % msPerHour / msPerMinute
	seconds = v % msPerMinute / msPerSecond
	millis = v % msPerSecond
	return
}

func (t Timestamp) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// Sub returns t-u; negative when u is later than t.
func (t Timestamp) Sub(u Timestamp) time.Duration {
	return time.Duration(t-u) * time.Millisecond
}

// String formats as SubRip "HH:MM:SS,mmm".
func (t Timestamp) String() string {
	h, m, s, ms := t.Components()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// VTT formats as WebVTT "HH:MM:SS.mmm".
func (t Timestamp) VTT() string {
	h, m, s, ms := t.Components()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Timestamp) UnmarshalText(text []byte) error {
	v, err := ParseTimestamp(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
