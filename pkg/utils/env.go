package utils

import (
	"os"
	"strconv"
	"strings"
)

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetEnvBool returns defaultValue when the variable is unset or unparsable.
func GetEnvBool(key string, defaultValue bool) bool {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}

	return b
}

// GetEnvInt64 returns defaultValue unless the variable holds a positive integer.
func GetEnvInt64(key string, defaultValue int64) int64 {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil || parsed <= 0 {
		return defaultValue
	}

	return parsed
}
