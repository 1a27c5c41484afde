// Package utils holds small helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or
// not a valid integer. Handlers use it for query parameters like ?page=2.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
