package utils

import (
	"fmt"
	"time"
)

// FormatRemaining renders a remaining mute time in Arabic, e.g. "12 دقيقة و 5 ثانية".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "انتهت المدة"
	}

	total := int(d / time.Second)
	minutes := total / 60
	seconds := total % 60

	switch {
	case minutes > 0 && seconds > 0:
		return fmt.Sprintf("%d دقيقة و %d ثانية", minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%d دقيقة", minutes)
	default:
		return fmt.Sprintf("%d ثانية", seconds)
	}
}

// FormatMinutes renders a sanction length in whole minutes.
func FormatMinutes(d time.Duration) string {
	return fmt.Sprintf("%d دقيقة", int(d/time.Minute))
}
