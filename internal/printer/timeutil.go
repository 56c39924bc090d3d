package printer

import (
	"fmt"
	"time"

	"github.com/slok/questline/internal/model"
)

// Age returns how long ago t happened relative to now in a compact form
// using the largest whole unit, e.g. "42s ago", "3m ago", "5h ago", "2d ago".
func Age(now, t time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}

	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}

// RunDuration returns the wall time a finished run took, rounded to the
// millisecond. Runs without a finish time are still "running".
func RunDuration(r model.Run) string {
	if r.FinishedAt == nil {
		return "running"
	}

	d := r.FinishedAt.Sub(r.StartedAt)
	if d < 0 {
		d = 0
	}
	return d.Round(time.Millisecond).String()
}

// FormatTimestamp returns t in UTC as "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
