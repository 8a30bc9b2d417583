package engine

import (
	"context"
	"sync"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

type subscription struct {
	id  int64
	typ ScoreEventType
	fn  func(context.Context, ScoreEvent)
}

// EventBus provides thread-safe pub/sub of scoring notifications with
// sync and async dispatch.
type EventBus struct {
	mode         DispatchMode
	mu           sync.RWMutex
	subs         map[ScoreEventType]map[int64]subscription
	nextID       int64
	asyncQueue   chan ScoreEvent
	asyncWorkers int
	workers      sync.WaitGroup
	closed       bool
}

func NewEventBus(mode DispatchMode) *EventBus {
	eb := &EventBus{
		mode:         mode,
		subs:         make(map[ScoreEventType]map[int64]subscription),
		asyncQueue:   make(chan ScoreEvent, 2048),
		asyncWorkers: 4,
	}
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

func (e *EventBus) startWorkers() {
	for i := 0; i < e.asyncWorkers; i++ {
		e.workers.Add(1)
		go func() {
			defer e.workers.Done()
			for ev := range e.asyncQueue {
				e.dispatchSync(context.Background(), ev)
			}
		}()
	}
}

// Close stops accepting events, drains the async queue, and waits for
// workers to finish. Safe to call more than once.
func (e *EventBus) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	close(e.asyncQueue)
	e.workers.Wait()
}

// Subscribe registers a handler for an event type. Returns unsubscribe func.
func (e *EventBus) Subscribe(typ ScoreEventType, handler func(context.Context, ScoreEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]subscription)
	}
	e.subs[typ][id] = subscription{id: id, typ: typ, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// Publish sends an event to subscribers. Events published after Close
// are dropped.
func (e *EventBus) Publish(ctx context.Context, ev ScoreEvent) {
	if e.mode == DispatchAsync {
		// The read lock keeps Close from closing the queue mid-send.
		e.mu.RLock()
		defer e.mu.RUnlock()
		if e.closed {
			return
		}
		select {
		case e.asyncQueue <- ev:
		default:
			// Drop if queue full to preserve latency; alternative is blocking
		}
		return
	}
	e.dispatchSync(ctx, ev)
}

func (e *EventBus) dispatchSync(ctx context.Context, ev ScoreEvent) {
	e.mu.RLock()
	subs := e.subs[ev.Type]
	// copy to avoid holding lock during callbacks
	handlers := make([]func(context.Context, ScoreEvent), 0, len(subs))
	for _, s := range subs {
		handlers = append(handlers, s.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
