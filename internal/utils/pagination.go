// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"fmt"
	"strconv"
)

// AtoiDefault converts a query value to an int. An empty string yields def;
// anything strconv.Atoi rejects yields an error naming the value.
//
// Example:
//
//	n, _ := utils.AtoiDefault("42", 0) // 42
//	n, _ = utils.AtoiDefault("", 10)   // 10
//	_, err := utils.AtoiDefault("x", 5) // err != nil
func AtoiDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}
