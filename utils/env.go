package utils

import (
	"os"
	"strconv"
)

// GetenvInt returns the integer value of the named environment variable, or defaultVal when the
// variable is unset or not an integer.
func GetenvInt(v string, defaultVal int) int {
	x := os.Getenv(v)
	if x == "" {
		return defaultVal
	}

	i, err := strconv.ParseInt(x, 10, 64)
	if err != nil {
		return defaultVal
	}

	return int(i)
}
