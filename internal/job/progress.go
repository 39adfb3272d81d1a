package job

import "math"

// Percentage computes a progress percentage from (current, total), rounded to
// two decimal places. A non-positive total yields 0 and negative inputs are
// clamped to 0.
func Percentage(current, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	if current < 0 {
		current = 0
	}
	pct := float64(current) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// progressAt builds a Progress value for (current, total). Current is clamped
// into [0, total] when total is positive so a racing update can never report
// more work done than exists.
func progressAt(current, total int, message string) Progress {
	if current < 0 {
		current = 0
	}
	if total > 0 && current > total {
		current = total
	}
	return Progress{
		Current:    current,
		Total:      total,
		Percentage: Percentage(current, total),
		Message:    message,
	}
}
