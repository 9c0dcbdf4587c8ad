package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_GetSet(t *testing.T) {
	c := NewCell(1)
	assert.Equal(t, 1, c.Get())

	c.Set(2)
	assert.Equal(t, 2, c.Get())
}

func TestCell_SubscribersNotifiedInOrder(t *testing.T) {
	c := NewCell(0)

	var got []string
	c.Subscribe(func(v int) { got = append(got, "a") })
	c.Subscribe(func(v int) { got = append(got, "b") })

	c.Set(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCell_UnsubscribeStopsDelivery(t *testing.T) {
	c := NewCell(0)

	var calls int
	unsub := c.Subscribe(func(int) { calls++ })

	c.Set(1)
	unsub()
	c.Set(2)

	assert.Equal(t, 1, calls)
}

func TestCell_SubscriberMayReadCell(t *testing.T) {
	c := NewCell(0)

	var seen int
	c.Subscribe(func(int) { seen = c.Get() })

	c.Set(7)
	assert.Equal(t, 7, seen)
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	b := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var fired []int
	for i := 0; i < 5; i++ {
		i := i
		b.Trigger(func() {
			mu.Lock()
			fired = append(fired, i)
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4}, fired, "only the last trigger should fire")
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	b := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	fired := false
	b.Trigger(func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	b.Stop()

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired)

	// Triggers after Stop are rejected.
	b.Trigger(func() { t.Error("should not fire") })
	time.Sleep(40 * time.Millisecond)
}
