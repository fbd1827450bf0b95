package mailer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_RunsAndDrainsOnShutdown(t *testing.T) {
	q := NewQueue(2, 16, zerolog.Nop(), zerolog.Nop())
	q.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		ok := q.Enqueue(Job{ID: "job", Run: func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
			return nil
		}})
		require.True(t, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))
	assert.Equal(t, int32(10), ran.Load())
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(1, 1, zerolog.Nop(), zerolog.Nop())

	// Not started: the single buffer slot fills and the next job is dropped.
	assert.True(t, q.Enqueue(Job{ID: "a", Run: func(context.Context) error { return nil }}))
	assert.False(t, q.Enqueue(Job{ID: "b", Run: func(context.Context) error { return nil }}))
	assert.Equal(t, int64(1), q.Dropped())
}

func TestQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewQueue(1, 4, zerolog.Nop(), zerolog.Nop())
	q.Start(context.Background())
	require.NoError(t, q.Shutdown(context.Background()))

	assert.False(t, q.Enqueue(Job{ID: "late", Run: func(context.Context) error { return nil }}))
	assert.Equal(t, int64(1), q.Dropped())
}

func TestQueue_CountsFailuresAndPanics(t *testing.T) {
	q := NewQueue(1, 4, zerolog.Nop(), zerolog.Nop())
	q.Start(context.Background())

	q.Enqueue(Job{ID: "err", Run: func(context.Context) error { return errors.New("smtp down") }})
	q.Enqueue(Job{ID: "panic", Run: func(context.Context) error { panic("boom") }})

	require.NoError(t, q.Shutdown(context.Background()))
	assert.Equal(t, int64(2), q.Failed())
}

func TestQueue_JobsOutliveStartContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue(1, 4, zerolog.Nop(), zerolog.Nop())
	q.Start(ctx)
	cancel()

	var ran, sawCancel atomic.Bool
	q.Enqueue(Job{ID: "after-cancel", Run: func(jobCtx context.Context) error {
		ran.Store(true)
		sawCancel.Store(jobCtx.Err() != nil)
		return nil
	}})
	require.NoError(t, q.Shutdown(context.Background()))
	assert.True(t, ran.Load())
	assert.False(t, sawCancel.Load())
}
