package storage

import (
	"fmt"
	"regexp"
	"strings"

	"ontime/internal/etlerr"
)

// MaxIdentifierLen caps table names. Postgres truncates at 63 bytes, so
// longer names would silently alias there; SQLite has no practical limit.
const MaxIdentifierLen = 63

// reservedPrefix is owned by SQLite for its internal tables; CREATE TABLE
// rejects it in any letter case.
const reservedPrefix = "sqlite_"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier accepts plain SQL identifiers only: a letter or
// underscore followed by letters, digits or underscores. Anything else fails
// with etlerr.ErrInvalidIdentifier before any SQL is built, as do names in
// SQLite's reserved "sqlite_" namespace.
func ValidateIdentifier(name string) error {
	if len(name) > MaxIdentifierLen {
		return fmt.Errorf("table name %.20q...: %w: longer than %d bytes", name, etlerr.ErrInvalidIdentifier, MaxIdentifierLen)
	}
	if !identRe.MatchString(name) {
		return fmt.Errorf("table name %q: %w", name, etlerr.ErrInvalidIdentifier)
	}
	if strings.HasPrefix(strings.ToLower(name), reservedPrefix) {
		return fmt.Errorf("table name %q: %w: prefix %q is reserved", name, etlerr.ErrInvalidIdentifier, reservedPrefix)
	}
	return nil
}
