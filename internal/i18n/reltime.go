package i18n

import (
	"time"
)

// RelativeTime returns a human-readable relative time string (long form).
func RelativeTime(t time.Time) string {
	return relativeTime(time.Since(t))
}

func relativeTime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return T("common.time.justNow", "just now")
	case d < time.Hour:
		return Tn("common.time.minsAgo", "{{.Count}} min ago", "{{.Count}} mins ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return Tn("common.time.hoursAgo", "{{.Count}} hour ago", "{{.Count}} hours ago", int(d.Hours()))
	default:
		return Tn("common.time.daysAgo", "{{.Count}} day ago", "{{.Count}} days ago", int(d.Hours()/24))
	}
}

// RelativeTimeShort returns a compact age for the session list, such as
// "now", "4m", "2h" or "3d".
func RelativeTimeShort(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return relativeTimeShort(time.Since(t))
}

func relativeTimeShort(d time.Duration) string {
	switch {
	case d < time.Minute:
		return T("common.time.short.now", "now")
	case d < time.Hour:
		return Tf("common.time.short.minutes", "%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return Tf("common.time.short.hours", "%dh", int(d.Hours()))
	default:
		return Tf("common.time.short.days", "%dd", int(d.Hours()/24))
	}
}
