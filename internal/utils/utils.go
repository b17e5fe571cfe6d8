package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ParseQuantity parses strings like "500", "10K", "4M", "2G" into a plain
// count. Adapted from the teacher's byte-size parser: the CLI uses it for
// --max-polygons and --max-depth flags, a count of polygons or recursion
// levels rather than a file size, so the K/M/G suffixes here are powers of
// 1000, not 1024.
func ParseQuantity(spec string) (int64, error) {
	if spec == "" {
		return 0, errors.New("quantity string is empty")
	}
	suffixes := map[string]int64{
		"": 1,
		"K": 1000,
		"M": 1000 * 1000,
		"G": 1000 * 1000 * 1000,
	}
	spec = strings.ToUpper(strings.TrimSpace(spec))

	numPart := spec
	suffix := ""
	for i, r := range spec {
		if r < '0' || r > '9' {
			numPart = spec[:i]
			suffix = spec[i:]
			break
		}
	}
	mult, ok := suffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown quantity suffix '%s'", suffix)
	}
	if !allDigits(numPart) {
		return 0, fmt.Errorf("invalid quantity number %q", numPart)
	}
	var base int64
	if _, err := fmt.Sscanf(numPart, "%d", &base); err != nil {
		return 0, fmt.Errorf("invalid quantity number: %v", err)
	}
	return base * mult, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
