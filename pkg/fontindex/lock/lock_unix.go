//go:build unix

package lock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func (l *RebuildLock) open() (*os.File, error) {
	return os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o644)
}

func (l *RebuildLock) lockBlocking() error {
	f, err := l.open()
	if err != nil {
		return err
	}
	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		return err
	}
	l.mu.Lock()
	l.file = f
	l.mu.Unlock()
	return nil
}

func (l *RebuildLock) lockNonBlocking() error {
	f, err := l.open()
	if err != nil {
		return err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLockHeld
		}
		return err
	}
	l.mu.Lock()
	l.file = f
	l.mu.Unlock()
	return nil
}

// unlock keeps the lock file in place: removing it would let a waiter
// holding the old inode and a new opener both believe they own the lock.
func (l *RebuildLock) unlock() error {
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	return err
}
