package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique violation, optionally on
// a specific constraint. Postgres errors are matched by SQLSTATE; other
// drivers (sqlite in tests) fall back to the error text.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if dump := pkgerrors.Dump(err); dump.PGCode != "" {
		return dump.IsUniqueViolation(constraint)
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate key") {
		return false
	}
	return constraint == "" || strings.Contains(msg, strings.ToLower(constraint))
}
