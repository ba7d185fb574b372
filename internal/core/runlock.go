package core

import (
	"fmt"
	"os"
	"syscall"
)

// AcquireRunLock takes a non-blocking exclusive flock on the given path so
// that only one orchestrator process mutates a vault at a time. It returns
// an unlock function that must be called on shutdown. If another process
// already holds the lock, the error says so instead of blocking.
func AcquireRunLock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, fmt.Errorf("vault is locked by another orchestrator process (lock file %s)", path)
		}
		return nil, fmt.Errorf("acquiring vault lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
