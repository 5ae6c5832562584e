// Package lifecycle implements the race-free service lifecycle protocol
// spec.md §4.1 describes: Create claims a name exclusively and publishes its
// StaticConfig in two phases (locked, then unlocked) so a concurrent Open
// never observes a half-written descriptor; Open waits for that publish;
// OpenOrCreate races the two under a single retry loop.
package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"iox2/internal/config"
	"iox2/internal/shm"
)

const (
	stateLocked   byte = 0
	stateUnlocked byte = 1
)

func descriptorPath(dir shm.Dir, serviceName string) string {
	return filepath.Join(string(dir), serviceName+".static")
}

// ErrHangsInCreation is returned when a static descriptor's lock state has
// outlived the configured creation timeout: its creator crashed or stalled
// mid-publish, and spec.md §4.1 calls this condition out by name
// (HangsInCreation) rather than folding it into a generic "not found".
var ErrHangsInCreation = fmt.Errorf("iox2/lifecycle: service descriptor hangs in creation")

// errNotReady is an internal sentinel: the descriptor exists, is still
// locked, and has not yet exceeded the creation timeout. Callers retry.
var errNotReady = fmt.Errorf("iox2/lifecycle: service descriptor not yet published")

// ErrBeingCreated is returned by CreateStaticDescriptor when the name is
// already claimed by a descriptor that is itself still mid-publish (locked):
// a genuine race between two concurrent creators, distinct from
// shm.ErrAlreadyExists, which means a fully published, live descriptor
// already owns the name (spec.md §4.1/§7: IsBeingCreatedByAnotherInstance
// vs. AlreadyExists).
var ErrBeingCreated = fmt.Errorf("iox2/lifecycle: service descriptor is being created by another instance")

// IsNotReady reports whether err is (or wraps) errNotReady, for callers
// outside this package that need to tell "still being published, keep
// retrying" apart from a terminal open failure.
func IsNotReady(err error) bool {
	return errors.Is(err, errNotReady)
}

// CreateStaticDescriptor atomically claims serviceName and publishes wire in
// two phases: the O_EXCL create claims the name and writes a locked,
// zero-length record (phase one); the follow-up write and state flip publish
// the real payload and unlock it (phase two). A reader that opens the file
// between the phases sees state byte 0 and knows to keep waiting rather than
// misreading a half-written record.
func CreateStaticDescriptor(dir shm.Dir, serviceName string, wire config.WireStaticConfig, serializer config.Serializer) error {
	if err := dir.EnsureDir(); err != nil {
		return err
	}
	path := descriptorPath(dir, serviceName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return classifyExistingDescriptor(path)
		}
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte{stateLocked}); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	encoded, err := serializer.Encode(wire)
	if err != nil {
		return err
	}
	framed := config.Frame(encoded)
	if _, err := f.WriteAt(framed, 1); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte{stateUnlocked}, 0); err != nil {
		return err
	}
	return f.Sync()
}

// classifyExistingDescriptor reads the lock byte of a descriptor whose
// O_EXCL create just lost the name-claim race, to tell a still-publishing
// competitor (ErrBeingCreated) apart from an already-live service
// (shm.ErrAlreadyExists).
func classifyExistingDescriptor(path string) error {
	f, err := os.Open(path)
	if err != nil {
		// Raced with a concurrent unlink or still can't read it; treat it as
		// a live claim so the caller's retry loop backs off instead of
		// spinning on a file it can't inspect.
		return shm.ErrAlreadyExists
	}
	defer f.Close()

	state := make([]byte, 1)
	if _, err := f.ReadAt(state, 0); err != nil {
		// Creator has claimed the name but hasn't written the lock byte yet.
		return ErrBeingCreated
	}
	if state[0] == stateLocked {
		return ErrBeingCreated
	}
	return shm.ErrAlreadyExists
}

// OpenStaticDescriptor reads and deserializes serviceName's published
// StaticConfig. It returns errNotReady while the descriptor is still locked
// and within creationTimeout of its creation time, ErrHangsInCreation once
// that timeout has elapsed, and shm.ErrNotExist if the name has never been
// claimed.
func OpenStaticDescriptor(dir shm.Dir, serviceName string, creationTimeout time.Duration, serializer config.Serializer) (config.WireStaticConfig, error) {
	var out config.WireStaticConfig
	path := descriptorPath(dir, serviceName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, shm.ErrNotExist
		}
		return out, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return out, err
	}
	state := make([]byte, 1)
	if _, err := f.ReadAt(state, 0); err != nil {
		return out, err
	}
	if state[0] == stateLocked {
		if creationTimeout > 0 && time.Since(info.ModTime()) > creationTimeout {
			return out, ErrHangsInCreation
		}
		return out, errNotReady
	}

	rest := make([]byte, info.Size()-1)
	if _, err := f.ReadAt(rest, 1); err != nil {
		return out, err
	}
	encoded, err := config.Unframe(rest)
	if err != nil {
		return out, err
	}
	out, err = serializer.Decode(encoded)
	if err != nil || out.SerializerName != serializer.Name() {
		return config.WireStaticConfig{}, config.ErrCorrupted
	}
	return out, nil
}

// RemoveStaticDescriptor deletes serviceName's published descriptor. Callers
// must only do this once the service's DynamicConfig shows zero attached
// nodes (spec.md §4.1 teardown).
func RemoveStaticDescriptor(dir shm.Dir, serviceName string) error {
	err := os.Remove(descriptorPath(dir, serviceName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// DescriptorExists reports whether serviceName currently has a static
// descriptor file, locked or not.
func DescriptorExists(dir shm.Dir, serviceName string) bool {
	_, err := os.Stat(descriptorPath(dir, serviceName))
	return err == nil
}
