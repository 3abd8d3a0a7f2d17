package featureflags

import (
	"os"
	"strings"
)

// PublicSignup opens POST /api/requests/register to anonymous callers.
const PublicSignup = "public_signup"

// Flags reads boolean switches from the environment as
// FLAG_<NAME>=true/1/yes/on (case-insensitive).
type Flags struct {
	lookup func(string) string
}

// FromEnv reads flags from the process environment.
func FromEnv() *Flags {
	return &Flags{lookup: os.Getenv}
}

// FromMap reads flags from a fixed set, keyed by flag name.
func FromMap(values map[string]bool) *Flags {
	return &Flags{lookup: func(key string) string {
		name := strings.ToLower(strings.TrimPrefix(key, "FLAG_"))
		if values[name] {
			return "true"
		}
		return ""
	}}
}

// Enabled reports whether the named flag is on.
func (f *Flags) Enabled(name string) bool {
	if f == nil {
		return false
	}
	v := f.lookup("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Enabled checks the process environment directly.
func Enabled(name string) bool {
	return FromEnv().Enabled(name)
}
