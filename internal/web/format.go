package web

import "fmt"

// FormatInterval renders minutes as a human-readable duration: whole
// minutes under an hour, tenths of hours under a day, tenths of days above.
func FormatInterval(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.0f min", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%.1f h", hours)
	}
	return fmt.Sprintf("%.1f d", hours/24)
}
