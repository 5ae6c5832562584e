package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iox2/internal/config"
	"iox2/internal/shm"
)

func TestOpenOrCreateCreatesWhenNameIsFree(t *testing.T) {
	dir := shm.Dir(t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := OpenOrCreate(ctx, dir, 5*time.Millisecond,
		func() (string, error) { return "created", nil },
		func() (string, error) { t.Fatal("tryOpen must not run when tryCreate succeeds"); return "", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "created", got)
}

func TestOpenOrCreateOpensAfterConcurrentCreate(t *testing.T) {
	dir := shm.Dir(t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	published := false

	go func() {
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		published = true
		mu.Unlock()
	}()

	got, err := OpenOrCreate(ctx, dir, 5*time.Millisecond,
		func() (string, error) { return "", shm.ErrAlreadyExists },
		func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if !published {
				return "", errNotReady
			}
			return "opened", nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "opened", got)
}

func TestOpenOrCreatePropagatesHangsInCreation(t *testing.T) {
	dir := shm.Dir(t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := OpenOrCreate(ctx, dir, 5*time.Millisecond,
		func() (string, error) { return "", shm.ErrAlreadyExists },
		func() (string, error) { return "", ErrHangsInCreation },
	)
	assert.ErrorIs(t, err, ErrHangsInCreation)
}

func TestOpenOrCreateRespectsContextCancellation(t *testing.T) {
	dir := shm.Dir(t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := OpenOrCreate(ctx, dir, 5*time.Millisecond,
		func() (string, error) { return "", shm.ErrAlreadyExists },
		func() (string, error) { return "", errNotReady },
	)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenOrCreateAgainstRealDescriptors(t *testing.T) {
	dir := shm.Dir(t.TempDir())
	wire := config.WireStaticConfig{ServiceName: "svc", PatternKind: config.PatternKindEvent,
		Event: &config.WireEvent{MaxNotifiers: 1, MaxListeners: 1, MaxNodes: 1, EventIDMax: 1}, Attributes: []config.WireAttribute{}, SerializerName: "yaml.v3"}

	require.NoError(t, CreateStaticDescriptor(dir, "svc", wire, config.YAML()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := OpenOrCreate(ctx, dir, 5*time.Millisecond,
		func() (config.WireStaticConfig, error) {
			return config.WireStaticConfig{}, shm.ErrAlreadyExists
		},
		func() (config.WireStaticConfig, error) {
			return OpenStaticDescriptor(dir, "svc", time.Second, config.YAML())
		},
	)
	require.NoError(t, err)
	assert.Equal(t, wire, got)
}

func TestOpenOrCreatePropagatesUnexpectedCreateError(t *testing.T) {
	dir := shm.Dir(t.TempDir())
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := OpenOrCreate(ctx, dir, 5*time.Millisecond,
		func() (string, error) { return "", boom },
		func() (string, error) { t.Fatal("tryOpen must not run"); return "", nil },
	)
	assert.ErrorIs(t, err, boom)
}
