// Package utils provides utility functions and helpers for common operations
// used throughout the application. It includes string manipulation, number
// formatting and slice operations that simplify repeated tasks.
package utils

import (
	"fmt"
	"math"
)

// Plural returns a string with the number and the plural form of the word if necessary.
// It handles the simple English pluralization case where adding 's' is sufficient.
func Plural(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}

// TruncateString truncates a string to the given maximum number of runes and adds
// ellipsis if necessary. It never splits a multi-byte character.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Percentage returns part/total × 100, or 0 when total is zero.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ContainsString checks if a slice of strings contains a specific string.
func ContainsString(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}
