package utils

import (
	"strconv"
	"strings"
)

var fileSizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a human-readable lower-case unit string,
// e.g. 512b, 1.5kb, 10mb. Negative sizes format as 0b.
func FormatFileSize(bytes int64) string {
	if bytes < 1024 {
		if bytes < 0 {
			bytes = 0
		}
		return strconv.FormatInt(bytes, 10) + fileSizeUnits[0]
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(fileSizeUnits)-1 {
		value /= 1024
		unitIndex++
	}
	precision := 0
	if value < 10 {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(value, 'f', precision, 64), ".0")
	return formatted + fileSizeUnits[unitIndex]
}
