package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID parses a path segment like "42" into a product id.
func ParseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("id required")
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer: %q", s)
	}
	return id, nil
}
