package sqlite

import (
	"strings"
	"time"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// Path is the database file. It is created on first open; its parent
	// directory must already exist. ":memory:" opens a private in-memory
	// database (no lock file, no directory check).
	Path string

	// ReadOnly opens an existing file with mode=ro. A missing file is not
	// created; every table in it then reports etlerr.ErrNoSuchTable.
	ReadOnly bool

	// BusyTimeout is how long a statement waits on a locked database before
	// failing. Zero means DefaultBusyTimeout.
	BusyTimeout time.Duration
}

// DefaultBusyTimeout is applied when Config.BusyTimeout is zero.
const DefaultBusyTimeout = 5 * time.Second

func (c Config) inMemory() bool { return c.Path == ":memory:" }

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn is the driver name for Path: the plain path, or a "file:" URI with
// mode=ro for read-only handles.
func (c Config) dsn() string {
	if !c.ReadOnly || c.inMemory() {
		return c.Path
	}
	return "file:" + uriEscaper.Replace(c.Path) + "?mode=ro"
}
