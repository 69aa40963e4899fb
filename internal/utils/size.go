package utils

import (
	"fmt"
	"strings"
)

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a human-readable lower-case unit string.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		return "0b"
	}
	scaledValue := float64(bytes)
	unitIndex := 0
	for scaledValue >= 1024 && unitIndex < len(sizeUnits)-1 {
		scaledValue /= 1024
		unitIndex++
	}
	switch {
	case unitIndex == 0:
		return fmt.Sprintf("%db", bytes)
	case scaledValue < 10:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", scaledValue), ".0") + sizeUnits[unitIndex]
	default:
		return fmt.Sprintf("%.0f%s", scaledValue, sizeUnits[unitIndex])
	}
}
