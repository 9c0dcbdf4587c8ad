// Package state implements the reactive proposal state core: observable
// cells, the draft editor with debounced validation, the subscription
// lifecycle manager, the derived view combinator and the detail resolver.
package state

import (
	"sync"
	"time"
)

// Cell is a mutable observable value. Subscribers are notified on every Set,
// in subscription order, outside the cell's lock so a callback may read
// other cells or call back into the owning component.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]func(T)
	order []int
	next  int
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value and publishes it to all subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	callbacks := make([]func(T), 0, len(c.order))
	for _, id := range c.order {
		if fn, ok := c.subs[id]; ok {
			callbacks = append(callbacks, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(v)
	}
}

// Subscribe registers fn for future updates and returns an unsubscribe
// function. The current value is not replayed; callers read it with Get.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.order = append(c.order, id)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// Debouncer coalesces bursts of triggers into one callback after a quiet
// window. Each Trigger supersedes the previous pending one; the callback
// runs on a timer goroutine.
type Debouncer struct {
	mu      sync.Mutex
	d       time.Duration
	timer   *time.Timer
	stopped bool
}

// DefaultDebounce is the quiet window applied to text and numeric field
// validation, long enough to let typing and slider drags settle.
const DefaultDebounce = 300 * time.Millisecond

func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{d: d}
}

// Trigger schedules fn after the quiet window, cancelling any pending run.
func (b *Debouncer) Trigger(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.d, fn)
}

// Stop cancels any pending run and rejects future triggers.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
