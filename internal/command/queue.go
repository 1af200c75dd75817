package command

import (
	"container/heap"
	"context"
	"sync"
)

// Queue is a bounded priority queue of commands. The front of the queue is
// always the next command to execute: lowest priority band first, FIFO
// within a band.
//
// Enqueue never blocks the producer. When the queue is full the worst
// pending command (largest priority band, oldest within it) is evicted to
// make room; an incoming command that sorts worse than everything pending is
// dropped instead. Dequeue blocks until a command is available or the
// context is cancelled.
type Queue struct {
	mu       sync.Mutex
	items    commandHeap
	capacity int
	seq      uint64

	// wake holds at most one pending notification for the single consumer.
	wake chan struct{}
}

// DefaultCapacity bounds the queue when no capacity is configured.
const DefaultCapacity = 256

// NewQueue creates a queue holding at most capacity commands.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		items:    make(commandHeap, 0, capacity),
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
	heap.Init(&q.items)
	return q
}

// Enqueue adds a command, evicting the worst pending command on overflow.
// It reports whether the command was admitted.
func (q *Queue) Enqueue(cmd Command) bool {
	q.mu.Lock()

	q.seq++
	cmd.seq = q.seq

	if len(q.items) >= q.capacity {
		worst := q.worstIndex()
		if cmd.Category.Priority() > q.items[worst].Category.Priority() {
			// The incoming command sorts behind every pending band; drop it
			// rather than churn the queue.
			q.mu.Unlock()
			return false
		}
		// Evict the oldest entry of the worst band.
		heap.Remove(&q.items, worst)
	}

	heap.Push(&q.items, cmd)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Dequeue removes and returns the next command, blocking until one is
// available or ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (Command, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			cmd := heap.Pop(&q.items).(Command)
			q.mu.Unlock()
			return cmd, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case <-q.wake:
		}
	}
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// worstIndex returns the index of the command that sorts last: largest
// priority band, smallest sequence within it (the oldest low-priority
// entry). Caller must hold q.mu and the queue must be non-empty.
func (q *Queue) worstIndex() int {
	worst := 0
	for i := 1; i < len(q.items); i++ {
		w, c := q.items[worst], q.items[i]
		if c.Category.Priority() > w.Category.Priority() ||
			(c.Category.Priority() == w.Category.Priority() && c.seq < w.seq) {
			worst = i
		}
	}
	return worst
}

// lessOrdered reports whether a dequeues before b.
func lessOrdered(a, b Command) bool {
	if a.Category.Priority() != b.Category.Priority() {
		return a.Category.Priority() < b.Category.Priority()
	}
	return a.seq < b.seq
}

type commandHeap []Command

func (h commandHeap) Len() int { return len(h) }

func (h commandHeap) Less(i, j int) bool {
	return lessOrdered(h[i], h[j])
}

func (h commandHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *commandHeap) Push(x interface{}) {
	*h = append(*h, x.(Command))
}

func (h *commandHeap) Pop() interface{} {
	old := *h
	n := len(old)
	cmd := old[n-1]
	*h = old[0 : n-1]
	return cmd
}
