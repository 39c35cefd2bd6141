package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := New(Config{MaxWorkers: 4, QueueSize: 32})
	defer p.Close()

	var executed atomic.Int32
	dones := make([]<-chan struct{}, 0, 20)
	for i := 0; i < 20; i++ {
		done, err := p.Submit(context.Background(), func(ctx context.Context) {
			executed.Add(1)
		})
		require.NoError(t, err)
		dones = append(dones, done)
	}

	for _, done := range dones {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task did not complete in time")
		}
	}
	assert.Equal(t, int32(20), executed.Load())
}

func TestPool_ConcurrencyCap(t *testing.T) {
	p := New(Config{MaxWorkers: 2, QueueSize: 32})
	defer p.Close()

	var active, peak atomic.Int32
	block := make(chan struct{})

	dones := make([]<-chan struct{}, 0, 8)
	for i := 0; i < 8; i++ {
		done, err := p.Submit(context.Background(), func(ctx context.Context) {
			cur := active.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			<-block
			active.Add(-1)
		})
		require.NoError(t, err)
		dones = append(dones, done)
	}

	time.Sleep(50 * time.Millisecond)
	close(block)
	for _, done := range dones {
		<-done
	}

	assert.LessOrEqual(t, peak.Load(), int32(2), "never more than MaxWorkers concurrent tasks")
}

func TestPool_QueueFull(t *testing.T) {
	p := New(Config{MaxWorkers: 1, QueueSize: 1})
	defer p.Close()

	block := make(chan struct{})
	defer close(block)

	// First task occupies the worker, second fills the queue.
	_, err := p.Submit(context.Background(), func(ctx context.Context) { <-block })
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = p.Submit(context.Background(), func(ctx context.Context) {})
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrPoolFull)
	assert.Positive(t, p.Stats().Rejected)
}

func TestPool_ExpiredContextSkipped(t *testing.T) {
	p := New(Config{MaxWorkers: 1, QueueSize: 8})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed atomic.Bool
	done, err := p.Submit(ctx, func(ctx context.Context) {
		executed.Store(true)
	})
	require.NoError(t, err)

	<-done
	assert.False(t, executed.Load(), "tasks with expired contexts are dropped")
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New(DefaultConfig())
	p.Close()

	_, err := p.Submit(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}
