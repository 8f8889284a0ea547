package user

import (
	"os"
	"os/user"
	"strings"

	"github.com/thenoetrevino/pizarra/internal/types"
)

// EnvUser overrides the detected user id
const EnvUser = "PIZARRA_USER"

// Current returns the id tasks are assigned to when someone says "me".
// It tries multiple methods with fallbacks:
// 1. PIZARRA_USER - explicit board identity
// 2. user.Current() - username from the OS
// 3. USER environment variable - fallback for restricted environments
// 4. "unknown" - final fallback to ensure a non-empty value
func Current() types.UserID {
	if id := strings.TrimSpace(os.Getenv(EnvUser)); id != "" {
		return types.UserID(id)
	}

	currentUser, err := user.Current()
	if err == nil && currentUser.Username != "" {
		return types.UserID(currentUser.Username)
	}

	if username := os.Getenv("USER"); username != "" {
		return types.UserID(username)
	}
	return "unknown"
}

// IsSelf reports whether a flag value refers to the current user
func IsSelf(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "me")
}
