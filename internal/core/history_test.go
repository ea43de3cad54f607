package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryReplaceHonorsGeneration(t *testing.T) {
	h := NewHistory()
	key := Broadcast(RoleDriver)

	first := h.Begin(key)
	second := h.Begin(key)

	assert.True(t, h.Replace(key, second, []ChatMessage{{ID: "new"}}))
	assert.False(t, h.Replace(key, first, []ChatMessage{{ID: "old"}, {ID: "older"}}))

	msgs := h.Messages(key)
	assert.Len(t, msgs, 1)
	assert.Equal(t, "new", msgs[0].ID)
}

func TestHistoryGenerationsArePerKey(t *testing.T) {
	h := NewHistory()
	a, b := Broadcast(RoleDriver), Direct("42")

	genA := h.Begin(a)
	h.Begin(b)
	h.Begin(b)

	assert.True(t, h.Replace(a, genA, []ChatMessage{{ID: "a1"}}))
}

func TestHistoryReplaceDoesNotMerge(t *testing.T) {
	h := NewHistory()
	key := Direct("42")

	h.Append(key, ChatMessage{ID: "local"})
	assert.True(t, h.Replace(key, h.Begin(key), []ChatMessage{{ID: "r1"}, {ID: "r2"}}))
	assert.Equal(t, 2, h.Len(key))
}

func TestHistorySettleSwapsEntry(t *testing.T) {
	h := NewHistory()
	key := Broadcast(RoleOthers)

	h.Append(key, ChatMessage{ID: "m1", Delivery: DeliveryPending})
	snapshot := h.Messages(key)

	settled, ok := h.Settle(key, "m1", DeliveryFailed)
	assert.True(t, ok)
	assert.Equal(t, DeliveryFailed, settled.Delivery)
	assert.Equal(t, DeliveryFailed, h.Messages(key)[0].Delivery)

	// Earlier snapshots keep the value they were taken with.
	assert.Equal(t, DeliveryPending, snapshot[0].Delivery)

	_, ok = h.Settle(key, "missing", DeliverySent)
	assert.False(t, ok)
}

func TestHistoryMessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	key := Broadcast(RoleDriver)
	h.Append(key, ChatMessage{ID: "m1", Text: "a"})

	msgs := h.Messages(key)
	msgs[0].Text = "changed"

	assert.Equal(t, "a", h.Messages(key)[0].Text)
}
