package game

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_ShutdownCancelsAndWaits(t *testing.T) {
	r := NewRunner()
	var finished atomic.Int32
	for range 3 {
		r.Go(func(ctx context.Context) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	assert.Equal(t, int32(3), finished.Load())
	assert.True(t, r.Closed())
}

func TestRunner_ShutdownIsBounded(t *testing.T) {
	r := NewRunner()
	release := make(chan struct{})
	defer close(release)
	r.Go(func(ctx context.Context) {
		<-release
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Shutdown(ctx), context.DeadlineExceeded)
}

func TestRunner_GoAfterShutdownRunsInline(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.Shutdown(context.Background()))

	ran := false
	r.Go(func(ctx context.Context) {
		ran = ctx.Err() != nil
	})
	assert.True(t, ran)
}
