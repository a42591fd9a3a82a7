package clock

import (
	"time"
)

// Layout is the wire format for every timestamp the API emits.
const Layout = "2006-01-02T15:04:05.000Z07:00"

func Now() string {
	return Format(time.Now())
}

// Format renders t in UTC using Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// FormatPtr renders an optional timestamp; nil stays nil so it marshals as JSON null.
func FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

// Truncate drops precision below a millisecond, which is what every store keeps.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
