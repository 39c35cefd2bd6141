package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/decision"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sampleResult() *decision.Result {
	v := decision.BoolValue(true)
	return &decision.Result{
		DecisionID: "dec-1",
		Status:     decision.StatusResolved,
		Value:      &v,
		Confidence: 0.8,
		Votes:      decision.VoteDistribution{"true": 4, "false": 1},
	}
}

func TestLocalCacheRoundTrip(t *testing.T) {
	c := New(DefaultConfig(), nil, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, "digest-a")
	assert.False(t, ok)

	c.Set(ctx, "digest-a", sampleResult())

	got, ok := c.Get(ctx, "digest-a")
	require.True(t, ok)
	assert.Equal(t, decision.StatusResolved, got.Status)
	require.NotNil(t, got.Value)
	assert.True(t, got.Value.Bool)
	assert.Equal(t, 4, got.Votes["true"])
}

func TestRedisTierPromotesToLocal(t *testing.T) {
	rdb := newRedisClient(t)
	ctx := context.Background()

	writer := New(DefaultConfig(), rdb, zap.NewNop())
	writer.Set(ctx, "digest-a", sampleResult())

	// A fresh cache has a cold local tier and must fall through to redis.
	reader := New(DefaultConfig(), rdb, zap.NewNop())
	got, ok := reader.Get(ctx, "digest-a")
	require.True(t, ok)
	assert.Equal(t, "dec-1", got.DecisionID)

	// Hit again after the redis connection is gone: the promoted local
	// copy must serve.
	require.NoError(t, rdb.Close())
	got, ok = reader.Get(ctx, "digest-a")
	require.True(t, ok)
	assert.Equal(t, "dec-1", got.DecisionID)
}

func TestRedisOutageDegradesToMiss(t *testing.T) {
	rdb := newRedisClient(t)
	require.NoError(t, rdb.Close())

	c := New(DefaultConfig(), rdb, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, "digest-a")
	assert.False(t, ok)

	// Set must not panic on a dead shared tier; the local tier still works.
	c.Set(ctx, "digest-a", sampleResult())
	_, ok = c.Get(ctx, "digest-a")
	assert.True(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := newLRUCache(2, 0)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", []byte("3"))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	c := newLRUCache(8, 10*time.Millisecond)
	c.Set("a", []byte("1"))

	_, ok := c.Get("a")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

type countingDecider struct {
	calls atomic.Int32
	block chan struct{}
}

func (d *countingDecider) Decide(_ context.Context, req *decision.Request) (*decision.Result, error) {
	d.calls.Add(1)
	if d.block != nil {
		<-d.block
	}
	v := decision.BoolValue(true)
	return &decision.Result{Status: decision.StatusResolved, Value: &v, Confidence: 1.0}, nil
}

func TestDeduperCollapsesConcurrentCalls(t *testing.T) {
	inner := &countingDecider{block: make(chan struct{})}
	d := NewDeduper(inner)

	req := &decision.Request{
		Instructions: "is the sky blue",
		Output:       decision.BooleanSpec(),
		VotingRounds: 3,
	}

	const callers = 5
	results := make([]*decision.Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := d.Decide(context.Background(), req)
			require.NoError(t, err)
			results[i] = r
		}(i)
	}

	// Let every caller pile onto the in-flight leader before releasing.
	time.Sleep(50 * time.Millisecond)
	close(inner.block)
	wg.Wait()

	assert.Equal(t, int32(1), inner.calls.Load())

	shared := 0
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, decision.StatusResolved, r.Status)
		if r.FromCache {
			shared++
		}
	}
	// Every caller of a shared flight is marked, leader included.
	assert.GreaterOrEqual(t, shared, callers-1)
}

func TestDeduperValidatesBeforeFlight(t *testing.T) {
	inner := &countingDecider{}
	d := NewDeduper(inner)

	req := &decision.Request{Instructions: "", Output: decision.BooleanSpec(), VotingRounds: 3}
	result, err := d.Decide(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, decision.StatusFailed, result.Status)
	assert.Equal(t, int32(0), inner.calls.Load())
}
