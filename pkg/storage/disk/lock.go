package disk

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
)

// acquireExclusive takes a non-blocking exclusive flock on fd, polling on
// contention until timeout elapses. A zero timeout tries exactly once.
func acquireExclusive(fd int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	const pollInterval = 10 * time.Millisecond

	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			return dberrors.Wrap(dberrors.Storage, "lock-io", err)
		}
		if time.Now().After(deadline) {
			return dberrors.New(dberrors.Storage, "lock-timeout", "timed out waiting for exclusive file lock")
		}
		time.Sleep(pollInterval)
	}
}

func releaseLock(fd int) error {
	if err := unix.Flock(fd, unix.LOCK_UN); err != nil {
		return dberrors.Wrap(dberrors.Storage, "lock-io", err)
	}
	return nil
}
