// Package fintables renders compact HTML financial-statement tables from
// fundamentals data for embedding in report generation prompts.
package fintables

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const notAvailable = "N/A"

// toFloat coerces a statement line-item value. The fundamentals API returns
// numbers as strings.
func toFloat(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
		if value == "" || strings.EqualFold(value, "nan") || value == notAvailable {
			return 0, false
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// formatValue renders a monetary value with a magnitude suffix.
func formatValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.1fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.0fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.0fK", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// yoyChange renders the year-over-year change between the two most recent
// periods, signed.
func yoyChange(current, previous float64, ok bool) string {
	if !ok || previous == 0 {
		return notAvailable
	}
	change := (current - previous) / math.Abs(previous) * 100
	if change > 0 {
		return fmt.Sprintf("+%.1f%%", change)
	}
	return fmt.Sprintf("%.1f%%", change)
}
