// Package shm is the platform substrate (spec.md §6): named create-exclusive
// shared storage, mmap'd for zero-copy access, plus the named blocking event
// primitive the event port machinery signals through. Every exported type
// here models one bullet of spec.md §6's "Platform substrate contract" —
// nothing in this package knows about services, patterns, or samples.
package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrAlreadyExists is returned by Create when the named segment is already
// claimed — the atomic name-claim spec.md §4.1 step 1 relies on.
var ErrAlreadyExists = errors.New("iox2/shm: segment already exists")

// ErrNotExist is returned by Open when the named segment is absent.
var ErrNotExist = os.ErrNotExist

// Segment is a named, create-exclusive region of memory backed by a regular
// file inside a configured shared directory and mapped with mmap. Using a
// plain directory rather than /dev/shm keeps the runtime portable across
// hosts that don't mount tmpfs at a fixed path, while preserving the
// create-exclusive, mmap-for-zero-copy contract POSIX shm_open makes.
type Segment struct {
	path string
	fd   int
	data []byte
}

// Dir is the root directory under which every named segment for a given
// runtime configuration lives. Two nodes must agree on Dir to see each
// other's services, exactly as two iceoryx2 nodes must agree on their
// platform's shared-memory root.
type Dir string

func (d Dir) pathFor(name string) string {
	return filepath.Join(string(d), name)
}

// EnsureDir creates the shared directory if it does not already exist.
func (d Dir) EnsureDir() error {
	return os.MkdirAll(string(d), 0o755)
}

// Create atomically claims name and sizes it to size bytes, returning the
// open, mapped Segment. It fails with ErrAlreadyExists if the name is
// already claimed by a live or abandoned segment (spec.md §4.1: "atomic
// across processes and rejects if the name already exists").
func Create(dir Dir, name string, size int) (*Segment, error) {
	if err := dir.EnsureDir(); err != nil {
		return nil, fmt.Errorf("iox2/shm: create %q: %w", name, err)
	}
	path := dir.pathFor(name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, unix.EEXIST) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("iox2/shm: create %q: %w", name, err)
	}
	seg, err := finishOpen(path, fd, size, true)
	if err != nil {
		return nil, err
	}
	return seg, nil
}

// Open maps an existing named segment. size must match (or be a safe lower
// bound of) the size it was created with.
func Open(dir Dir, name string, size int) (*Segment, error) {
	path := dir.pathFor(name)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("iox2/shm: open %q: %w", name, err)
	}
	return finishOpen(path, fd, size, false)
}

// Exists reports whether name is currently claimed, without mapping it.
func Exists(dir Dir, name string) bool {
	_, err := os.Stat(dir.pathFor(name))
	return err == nil
}

func finishOpen(path string, fd int, size int, truncate bool) (*Segment, error) {
	if truncate {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("iox2/shm: size %q: %w", path, err)
		}
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("iox2/shm: mmap %q: %w", path, err)
	}
	return &Segment{path: path, fd: fd, data: data}, nil
}

// Bytes exposes the mapped region directly; callers build typed views over
// it (see SlotTable, Pool, Ring) rather than copying out of it.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps and closes the segment's file descriptor without removing
// the underlying name — other processes may still hold it open.
func (s *Segment) Close() error {
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			return err
		}
		s.data = nil
	}
	if s.fd >= 0 {
		err := unix.Close(s.fd)
		s.fd = -1
		return err
	}
	return nil
}

// Unlink removes the named segment from the shared directory. Per spec.md
// §4.1 teardown, this must only be called once the last reference to the
// segment's contents has dropped.
func Unlink(dir Dir, name string) error {
	err := os.Remove(dir.pathFor(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
