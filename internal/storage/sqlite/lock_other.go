//go:build !unix

package sqlite

import "context"

type fileLock struct{}

// acquireLock is a no-op where flock(2) is unavailable; SQLite's busy
// timeout is the only guard there.
func acquireLock(ctx context.Context, _ string) (*fileLock, error) {
	return &fileLock{}, ctx.Err()
}

func (l *fileLock) release() {}

func writable(string) error { return nil }
