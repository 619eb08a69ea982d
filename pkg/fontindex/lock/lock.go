// Package lock provides the cross-process lock that serializes rebuilds of
// one index backing file.
//
// The lock lives next to the backing file as "<index>.lock". Its presence
// carries no meaning to readers; only RebuildLock interprets it.
package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
)

var logger = logging.Get("lock")

// ErrLockHeld is returned by TryAcquire when another holder owns the lock.
var ErrLockHeld = errors.New("rebuild lock is held by another process")

// pollInterval is the retry period while waiting with a cancellable context.
const pollInterval = 50 * time.Millisecond

// RebuildLock is a named, file-backed mutex for one index.
// A RebuildLock value is not reentrant.
type RebuildLock struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// New returns the lock guarding the backing file at indexPath.
func New(indexPath string) *RebuildLock {
	return &RebuildLock{path: indexPath + ".lock"}
}

// Path returns the lock file path.
func (l *RebuildLock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held. If ctx can be cancelled, Acquire
// polls and returns ctx.Err() when ctx ends first; otherwise it blocks in
// the kernel with no timeout.
func (l *RebuildLock) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	start := time.Now()
	if ctx.Done() == nil {
		if err := l.lockBlocking(); err != nil {
			return err
		}
		logger.Debug("acquired", "path", l.path, "waited", time.Since(start))
		return nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	logged := false
	for {
		err := l.TryAcquire()
		if err == nil {
			logger.Debug("acquired", "path", l.path, "waited", time.Since(start))
			return nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return err
		}
		if !logged {
			logger.Info("waiting for concurrent rebuild", "path", l.path)
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// TryAcquire takes the lock without waiting or returns ErrLockHeld.
func (l *RebuildLock) TryAcquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	return l.lockNonBlocking()
}

// Release drops the lock. Releasing a lock that is not held is a no-op,
// so Release is safe to defer unconditionally.
func (l *RebuildLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.unlock()
	l.file = nil
	if err == nil {
		logger.Debug("released", "path", l.path)
	}
	return err
}

// Held reports whether this value currently owns the lock.
func (l *RebuildLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// With runs fn while holding the lock.
func (l *RebuildLock) With(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return fn()
}
