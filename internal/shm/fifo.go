package shm

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Doorbell is the named event primitive spec.md §6 requires: a
// listener-owned wakeup channel that a notifier can ring without blocking,
// that supports a blocking read with an optional deadline, and that a
// dropped listener can interrupt. It is backed by a POSIX FIFO (mkfifo(2)):
// the notifier side opens it O_WRONLY|O_NONBLOCK and never blocks trying to
// wake a listener, the listener side opens it O_RDWR|O_NONBLOCK so reads
// can be driven through Go's deadline machinery instead of a raw blocking
// read. Holding a write end itself keeps a read from returning end-of-file
// while no notifier has the FIFO open, so a read waits for a ring or its
// deadline.
type Doorbell struct {
	path string
	file *os.File
}

// CreateDoorbell makes the named FIFO and opens its read end. Call this from
// the listener side when the port attaches.
func CreateDoorbell(dir Dir, name string) (*Doorbell, error) {
	if err := dir.EnsureDir(); err != nil {
		return nil, err
	}
	path := dir.pathFor(name)
	if err := unix.Mkfifo(path, 0o600); err != nil && !errors.Is(err, unix.EEXIST) {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return &Doorbell{path: path, file: os.NewFile(uintptr(fd), path)}, nil
}

// Ring wakes the named doorbell without blocking. If the FIFO does not
// exist, no listener currently holds the read end open, or the doorbell is already saturated with a
// pending ring, Ring succeeds silently — events are coalesced by the
// caller's own pending-id bitmap, not by this channel, so a missed or
// merged ring never loses an event (spec.md §4.3: "Events are coalesced
// per-id per-listener").
func Ring(dir Dir, name string) error {
	path := dir.pathFor(name)
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ENXIO) || errors.Is(err, unix.ENOENT) {
			return nil // no reader attached right now
		}
		return err
	}
	defer unix.Close(fd)
	_, err = unix.Write(fd, []byte{1})
	if err != nil && errors.Is(err, unix.EAGAIN) {
		return nil // pipe already has a pending ring queued
	}
	return err
}

// WaitTimeout blocks until the doorbell rings or timeout elapses. A
// non-positive timeout blocks with no deadline (blocking_wait_one). It
// returns (false, nil) on timeout, never an error, per spec.md §7 ("timeout
// and empty are not errors").
func (d *Doorbell) WaitTimeout(timeout time.Duration) (bool, error) {
	if timeout > 0 {
		if err := d.file.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return false, err
		}
	} else if err := d.file.SetReadDeadline(time.Time{}); err != nil {
		return false, err
	}
	buf := make([]byte, 1)
	_, err := d.file.Read(buf)
	if err != nil {
		if os.IsTimeout(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TryWait polls the doorbell without blocking.
func (d *Doorbell) TryWait() (bool, error) {
	return d.WaitTimeout(time.Nanosecond)
}

// Close releases the doorbell's read end and removes the FIFO. Closing the
// file unblocks any goroutine parked in WaitTimeout, which is what gives
// listener-drop wakeup (spec.md §5: "dropping the listener while a thread is
// blocked in blocking_wait_* must unblock that thread").
func (d *Doorbell) Close(dir Dir, name string) error {
	err := d.file.Close()
	_ = Unlink(dir, name)
	return err
}
