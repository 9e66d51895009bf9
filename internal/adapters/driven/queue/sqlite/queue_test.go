package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := New(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueue_FIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte("first")))
	require.NoError(t, q.Push(ctx, []byte("second")))

	payload, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", string(payload))

	payload, ok, err = q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", string(payload))
}

func TestQueue_PopEmpty(t *testing.T) {
	q := newTestQueue(t)

	payload, ok, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestQueue_PopConsumes(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte(`{"jobId":"j1"}`)))

	_, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a popped job must not be delivered twice")
}

func TestQueue_Len(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, q.Push(ctx, []byte("a")))
	require.NoError(t, q.Push(ctx, []byte("b")))

	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
