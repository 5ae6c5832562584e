package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"

	"iox2/internal/shm"
	"iox2/internal/xlog"
)

// watchSlots bounds how many goroutines may hold an fsnotify watch on a
// shared directory at once, across every concurrent OpenOrCreate call in
// this process. fsnotify watches are a finite OS resource (inotify instances
// on Linux); a node that opens hundreds of services concurrently should
// queue for a watch slot rather than exhaust them.
var watchSlots = semaphore.NewWeighted(64)

// OpenOrCreate runs the race-free create-or-open loop spec.md §4.1
// describes for open_or_create: try to create first; if the name is already
// claimed, wait for its creator to finish publishing and open it instead,
// retrying on retryInterval (or as soon as the shared directory changes,
// whichever comes first) until ctx is done or the descriptor is found to
// hang in creation.
func OpenOrCreate[T any](ctx context.Context, dir shm.Dir, retryInterval time.Duration, tryCreate func() (T, error), tryOpen func() (T, error)) (T, error) {
	var zero T

	result, err := tryCreate()
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, shm.ErrAlreadyExists) && !errors.Is(err, ErrBeingCreated) {
		return zero, err
	}

	if err := watchSlots.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer watchSlots.Release(1)

	watcher, werr := fsnotify.NewWatcher()
	if werr != nil {
		xlog.Error("lifecycle", werr, "falling back to plain polling for open_or_create")
	} else {
		defer watcher.Close()
		if err := watcher.Add(string(dir)); err != nil {
			xlog.Error("lifecycle", err, "could not watch shared directory %q, falling back to polling", dir)
		}
	}

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		result, err := tryOpen()
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrHangsInCreation) {
			return zero, err
		}
		if !errors.Is(err, errNotReady) && !errors.Is(err, shm.ErrNotExist) {
			return zero, err
		}

		var wake <-chan fsnotify.Event
		if watcher != nil {
			wake = watcher.Events
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
	}
}
