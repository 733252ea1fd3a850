package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const lockFileName = "run.lock"

// errAlreadyRunning means another process holds the instance lock.
var errAlreadyRunning = errors.New("another promptwatch monitor is running")

// acquireInstanceLock takes the exclusive, non-blocking lock that allows a
// single monitor per state directory. The lock file is left in place.
func acquireInstanceLock(dir string) (*os.File, error) {
	lockPath := filepath.Join(dir, lockFileName)
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lockFile.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errAlreadyRunning
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	lockFile.Truncate(0)
	fmt.Fprintf(lockFile, "%d\n", os.Getpid())
	return lockFile, nil
}

// releaseInstanceLock releases a lock taken by acquireInstanceLock.
func releaseInstanceLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}
	unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	lockFile.Close()
}
