package input

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/ringbuf"
)

var ErrQueueClosed = errors.New("event queue closed")

type Event struct {
	Key  ebiten.Key
	Down bool
}

// Queue carries key events from the window thread to the router. It never blocks the
// producer: when full, the oldest press is dropped. Releases are only dropped when nothing
// but releases is queued, so an overflow cannot leave a button held.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	events  *ringbuf.RingBuf[Event]
	dropped int
	closed  bool
}

func NewQueue(n int) *Queue {
	q := &Queue{
		events: ringbuf.New[Event](n),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	if q.events.Free() == 0 {
		q.dropOne()
	}
	q.events.Push([]Event{ev})
	q.cond.Broadcast()
}

func (q *Queue) dropOne() {
	evs := make([]Event, q.events.Used())
	q.events.Pop(evs, 0)

	victim := 0
	for i, ev := range evs {
		if ev.Down {
			victim = i
			break
		}
	}
	q.events.Push(evs[:victim])
	q.events.Push(evs[victim+1:])

	q.dropped++
	if q.dropped == 1 || q.dropped%100 == 0 {
		log.Printf("input queue full, dropped %d events so far", q.dropped)
	}
}

// Pop waits for at least one event and returns everything queued.
func (q *Queue) Pop(ctx context.Context) ([]Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	}()

	for q.events.Used() == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}

	if n := q.events.Used(); n > 0 {
		evs := make([]Event, n)
		q.events.Pop(evs, 0)
		return evs, nil
	}
	if q.closed {
		return nil, ErrQueueClosed
	}
	return nil, ctx.Err()
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Dropped is the number of events lost to overflow.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}
