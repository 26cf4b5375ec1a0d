package runtime

import "os"

// Getenv is the tiny internal variant used before libs/config is in play
// (logger setup happens ahead of config parsing).
func Getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
