package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stim-control/scc/internal/device"
)

func strengthCmd(cat Category, source string) Command {
	return New(cat, KindSetStrength, device.ChannelA, OpSetTo, 10, source)
}

func TestQueueOrdersByPriorityThenArrival(t *testing.T) {
	q := NewQueue(16)

	// Priorities [3,1,2,1] must dequeue as [1,1,2,3] with the two
	// priority-1 commands in their original relative order.
	q.Enqueue(strengthCmd(CategoryGame, "game"))
	q.Enqueue(strengthCmd(CategoryPanel, "panel-first"))
	q.Enqueue(strengthCmd(CategoryInteraction, "interaction"))
	q.Enqueue(strengthCmd(CategoryPanel, "panel-second"))

	ctx := context.Background()
	var sources []string
	var priorities []int
	for i := 0; i < 4; i++ {
		cmd, err := q.Dequeue(ctx)
		require.NoError(t, err)
		sources = append(sources, cmd.SourceID)
		priorities = append(priorities, cmd.Category.Priority())
	}

	assert.Equal(t, []int{1, 1, 2, 3}, priorities)
	assert.Equal(t, []string{"panel-first", "panel-second", "interaction", "game"}, sources)
}

func TestQueueFIFOWithinBand(t *testing.T) {
	q := NewQueue(16)
	for _, src := range []string{"a", "b", "c", "d"} {
		q.Enqueue(strengthCmd(CategoryGUI, src))
	}

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c", "d"} {
		cmd, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, cmd.SourceID)
	}
}

func TestQueueOverflowEvictsOldestWorst(t *testing.T) {
	q := NewQueue(2)

	require.True(t, q.Enqueue(strengthCmd(CategoryGame, "game-old")))
	require.True(t, q.Enqueue(strengthCmd(CategoryGame, "game-new")))

	// A better-priority command evicts the oldest entry of the worst band.
	require.True(t, q.Enqueue(strengthCmd(CategoryGUI, "gui")))
	assert.Equal(t, 2, q.Len())

	ctx := context.Background()
	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gui", first.SourceID)
	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "game-new", second.SourceID)
}

func TestQueueOverflowDropsWorseIncoming(t *testing.T) {
	q := NewQueue(2)

	require.True(t, q.Enqueue(strengthCmd(CategoryGUI, "gui-1")))
	require.True(t, q.Enqueue(strengthCmd(CategoryGUI, "gui-2")))

	// An incoming command behind every pending band is dropped outright.
	assert.False(t, q.Enqueue(strengthCmd(CategoryGame, "game")))
	assert.Equal(t, 2, q.Len())
}

func TestQueueSamePriorityOverflowDropsOldest(t *testing.T) {
	q := NewQueue(2)

	require.True(t, q.Enqueue(strengthCmd(CategoryGame, "oldest")))
	require.True(t, q.Enqueue(strengthCmd(CategoryGame, "middle")))
	require.True(t, q.Enqueue(strengthCmd(CategoryGame, "newest")))

	ctx := context.Background()
	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "middle", first.SourceID)
	assert.Equal(t, "newest", second.SourceID)
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewQueue(4)

	done := make(chan Command, 1)
	go func() {
		cmd, err := q.Dequeue(context.Background())
		if err == nil {
			done <- cmd
		}
	}()

	select {
	case <-done:
		t.Fatal("Dequeue returned on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Enqueue(strengthCmd(CategoryGUI, "late"))

	select {
	case cmd := <-done:
		assert.Equal(t, "late", cmd.SourceID)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not observe the enqueue")
	}
}

func TestDequeueHonorsContextCancellation(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not observe cancellation")
	}
}

func TestNewFillsDefaultSourceID(t *testing.T) {
	cmd := New(CategoryGUI, KindSetStrength, device.ChannelA, OpSetTo, 5, "")
	assert.NotEmpty(t, cmd.SourceID)

	other := New(CategoryGUI, KindSetStrength, device.ChannelA, OpSetTo, 5, "")
	assert.NotEqual(t, cmd.SourceID, other.SourceID)
}

func TestDeltaSignsDecrease(t *testing.T) {
	inc := New(CategoryGUI, KindSetStrength, device.ChannelA, OpIncrease, 5, "s")
	dec := New(CategoryGUI, KindSetStrength, device.ChannelA, OpDecrease, 5, "s")
	assert.Equal(t, 5, inc.Delta())
	assert.Equal(t, -5, dec.Delta())
}
