package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/aguilarsoft/cartsync/pkg/redis"
)

type fakeKV struct {
	values map[string]string
	getErr error
	setErr error
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	blob, ok := f.values[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return blob, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value.(string)
	return nil
}

func TestRedisSnapshotsRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{}
	store := &RedisSnapshots{kv: kv, key: "cartsync:cart:default"}

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, `{"items":[]}`))

	blob, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, blob)
	assert.Contains(t, kv.values, "cartsync:cart:default")
}

func TestRedisSnapshotsPropagatesBackendErrors(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("connection refused")
	store := &RedisSnapshots{kv: &fakeKV{getErr: backendErr, setErr: backendErr}, key: "cartsync:cart:default"}

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, backendErr)
	require.NotErrorIs(t, err, ErrNoSnapshot)

	require.ErrorIs(t, store.Save(ctx, "{}"), backendErr)
}

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshots()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, `{"items":[]}`))
	blob, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, blob)

	// An explicitly saved empty blob is distinct from never having saved.
	require.NoError(t, store.Save(ctx, ""))
	blob, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, blob)
}
