package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
)

func validatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return domain.Invalid("password must be at least 8 characters")
	}
	if len(pw) > maxPasswordLen {
		return domain.Invalid("password must be at most 72 bytes")
	}
	return nil
}

// missing returns a validation error naming the first empty field.
func missing(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return domain.Invalid(f[0] + " is required")
		}
	}
	return nil
}

func field(name, value string) [2]string { return [2]string{name, value} }

func utcNow() time.Time { return time.Now().UTC() }
