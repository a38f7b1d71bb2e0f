package facade_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/control"
	"github.com/momentics/hioload-bridge/facade"
	"github.com/momentics/hioload-bridge/fake"
)

func TestBatch_LengthMismatch(t *testing.T) {
	b := newBridge(t, fake.NewExtractor(), nil)
	_, err := b.BatchExtractPooled(
		[][]byte{[]byte("a"), []byte("b"), []byte("c")},
		[]string{"text/plain", "text/plain"},
		nil,
	)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")
}

func TestBatch_Empty(t *testing.T) {
	b := newBridge(t, fake.NewExtractor(), nil)
	_, err := b.BatchExtractPooled(nil, nil, nil)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "batch is empty")

	_, err = b.BatchExtract(nil, nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestBatch_EmptyItem(t *testing.T) {
	eng := fake.NewExtractor()
	b := newBridge(t, eng, nil)

	_, err := b.BatchExtractPooled([][]byte{[]byte("a"), {}}, []string{"text/plain", "text/plain"}, nil)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "index 1")

	_, err = b.BatchExtract([]api.BytesWithMime{{Data: []byte("a")}}, nil)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	var ae *api.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 0, ae.Index)
	assert.Equal(t, 0, eng.CallCount(), "validation precedes engine calls")
}

func TestBatch_ResultsInOrder(t *testing.T) {
	b := newBridge(t, fake.NewExtractor(), nil)
	outs, err := b.BatchExtractPooled(
		[][]byte{[]byte("one"), []byte("two"), []byte("three")},
		[]string{"text/plain", "text/markdown", "text/csv"},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, outs, 3)
	assert.Equal(t, "one", outs[0].Content)
	assert.Equal(t, "two", outs[1].Content)
	assert.Equal(t, "three", outs[2].Content)
	assert.Equal(t, "text/csv", outs[2].MimeType)
}

func TestBatch_FailureNamesItem(t *testing.T) {
	b := newBridge(t, nil, nil)
	_, err := b.BatchExtractPooled(
		[][]byte{[]byte("fine"), []byte("???"), []byte("also fine")},
		[]string{"text/plain", "bogus/type", "text/plain"},
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrExtractionFailed)
	assert.ErrorIs(t, err, api.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "bogus/type")
	assert.Contains(t, err.Error(), "item 1")

	var ae *api.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, ae.Index)
	assert.Equal(t, "bogus/type", ae.MimeType)
}

func TestBatch_StopsAtFirstFailure(t *testing.T) {
	eng := fake.NewExtractor()
	eng.SetError("application/pdf", errors.New("corrupt"))
	b := newBridge(t, eng, nil)

	_, err := b.BatchExtract([]api.BytesWithMime{
		{Data: []byte("a"), MimeType: "text/plain"},
		{Data: []byte("b"), MimeType: "application/pdf"},
		{Data: []byte("c"), MimeType: "text/plain"},
	}, nil)
	require.ErrorIs(t, err, api.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "corrupt")
	assert.Equal(t, 2, eng.CallCount())
}

func TestBatch_PoolReuse(t *testing.T) {
	b := newBridge(t, fake.NewExtractor(), func(c *facade.Config) { c.Pool.InitialCapacity = 0 })
	buffers := [][]byte{make([]byte, 300), make([]byte, 700), make([]byte, 24)}
	for i := range buffers {
		buffers[i][0] = 'x'
	}
	mimes := []string{"text/plain", "text/plain", "text/plain"}

	_, err := b.BatchExtractPooled(buffers, mimes, nil)
	require.NoError(t, err)
	grows := b.Pool().Grows()
	capacity := b.Pool().Capacity()
	require.NotZero(t, grows)

	for i := 0; i < 5; i++ {
		_, err := b.BatchExtractPooled(buffers, mimes, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, grows, b.Pool().Grows())
	assert.Equal(t, capacity, b.Pool().Capacity())
	assert.Equal(t, uint64(6), b.Pool().Stats().Batches)
	assert.Equal(t, uint64(grows), b.Metrics().GetSnapshot()["pool.growths"])
}

func TestBatch_EngineSeesPoolCopy(t *testing.T) {
	eng := fake.NewExtractor()
	b := newBridge(t, eng, nil)
	input := []byte("original")

	eng.OnCall(func(data []byte, _ string) {
		assert.Equal(t, "original", string(data))
		assert.NotSame(t, &input[0], &data[0])
	})
	_, err := b.BatchExtract([]api.BytesWithMime{{Data: input, MimeType: "text/plain"}}, nil)
	require.NoError(t, err)
}

func TestBatch_PoolDisabledAtRuntime(t *testing.T) {
	b := newBridge(t, fake.NewExtractor(), nil)
	require.NoError(t, b.UpdateConfig(map[string]any{control.KeyPoolEnabled: false}))

	_, err := b.BatchExtract([]api.BytesWithMime{{Data: []byte("a"), MimeType: "text/plain"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b.Pool().Stats().Batches)
}

func TestBatch_PoolExhausted(t *testing.T) {
	b := newBridge(t, fake.NewExtractor(), func(c *facade.Config) {
		c.Pool.InitialCapacity = 8
		c.Pool.MaxCapacity = 8
	})
	_, err := b.BatchExtract([]api.BytesWithMime{
		{Data: []byte("1234"), MimeType: "text/plain"},
		{Data: []byte("56789"), MimeType: "text/csv"},
	}, nil)
	require.ErrorIs(t, err, api.ErrAllocationFailed)
	var ae *api.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, ae.Index)
	assert.Equal(t, "text/csv", ae.MimeType)
}

func TestBatch_DumpStateDuringBatch(t *testing.T) {
	eng := fake.NewExtractor()
	b := newBridge(t, eng, nil)
	release := eng.Hold()
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := b.BatchExtract([]api.BytesWithMime{{Data: []byte("held"), MimeType: "text/plain"}}, nil)
		done <- err
	}()
	<-eng.Started()

	state := make(chan map[string]any, 1)
	go func() { state <- b.DumpState() }()
	select {
	case st := <-state:
		assert.Contains(t, st, "pool.usage_percent")
		assert.Contains(t, st, "pool.capacity")
		assert.Contains(t, st, "pool.grows")
	case <-time.After(2 * time.Second):
		t.Fatal("DumpState blocked behind a running batch")
	}

	release()
	require.NoError(t, <-done)
}
