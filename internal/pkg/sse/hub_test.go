package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FanOutPerUser(t *testing.T) {
	h := NewHub()

	a1, cancelA1 := h.Subscribe("alice")
	a2, cancelA2 := h.Subscribe("alice")
	b, cancelB := h.Subscribe("bob")
	defer cancelA1()
	defer cancelA2()
	defer cancelB()

	assert.Equal(t, 2, h.SubscriberCount("alice"))

	n := h.Publish("alice", Event{Name: "notification", Data: "hi"})
	assert.Equal(t, 2, n)

	assert.Equal(t, "hi", (<-a1).Data)
	assert.Equal(t, "hi", (<-a2).Data)
	assert.Len(t, b, 0)
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u")
	defer cancel()

	for i := 0; i < defaultBufferSize+5; i++ {
		h.Publish("u", Event{Name: "tick", Data: i})
	}
	assert.Len(t, ch, defaultBufferSize)
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u")

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.SubscriberCount("u"))
	assert.Equal(t, 0, h.Publish("u", Event{Name: "x"}))
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u")

	h.Close()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	late, _ := h.Subscribe("u")
	_, open = <-late
	require.False(t, open)
}

func TestHub_PublishToMany(t *testing.T) {
	h := NewHub()
	a, ca := h.Subscribe("a")
	b, cb := h.Subscribe("b")
	defer ca()
	defer cb()

	h.PublishToMany([]string{"a", "b", "nobody"}, Event{Name: "task.assigned"})

	assert.Equal(t, "task.assigned", (<-a).Name)
	assert.Equal(t, "task.assigned", (<-b).Name)
}
