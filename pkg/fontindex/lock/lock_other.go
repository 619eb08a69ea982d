//go:build !unix

package lock

import (
	"errors"
	"os"
	"time"
)

// Without flock the lock is the existence of the file, created exclusively.

func (l *RebuildLock) lockBlocking() error {
	for {
		err := l.lockNonBlocking()
		if !errors.Is(err, ErrLockHeld) {
			return err
		}
		time.Sleep(pollInterval)
	}
}

func (l *RebuildLock) lockNonBlocking() error {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrLockHeld
		}
		return err
	}
	l.mu.Lock()
	l.file = f
	l.mu.Unlock()
	return nil
}

func (l *RebuildLock) unlock() error {
	err := l.file.Close()
	if rerr := os.Remove(l.path); err == nil {
		err = rerr
	}
	return err
}
