package cmd

import (
	"log/slog"
	"os"
	"strconv"
)

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring malformed environment variable",
			"key", key, "value", v)
		return fallback
	}

	return f
}

func envUint(key string, fallback uint64) uint64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		slog.Warn("ignoring malformed environment variable",
			"key", key, "value", v)
		return fallback
	}

	return n
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("ignoring malformed environment variable",
			"key", key, "value", v)
		return fallback
	}

	return b
}
