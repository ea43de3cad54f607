package core

import "sync"

// History maps conversation keys to their displayed messages.
//
// Contract per operation:
//   - Replace swaps the whole slice for a key (no merge) and only when the
//     caller still holds the latest fetch generation for that key.
//   - Append adds one message to the end of a key's slice.
//   - Settle swaps one entry, identified by ID, for a copy with a new delivery tag.
//
// Nothing else writes to it, and entries are only ever dropped by Replace.
type History struct {
	mu          sync.Mutex
	entries     map[ConversationKey][]ChatMessage
	generations map[ConversationKey]uint64
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{
		entries:     make(map[ConversationKey][]ChatMessage),
		generations: make(map[ConversationKey]uint64),
	}
}

// Begin reserves the next fetch generation for key. Any fetch holding an
// older generation for the same key is superseded.
func (h *History) Begin(key ConversationKey) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.generations[key]++
	return h.generations[key]
}

// Replace stores msgs as the full history of key if gen is still current.
// It reports whether the write happened.
func (h *History) Replace(key ConversationKey, gen uint64, msgs []ChatMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.generations[key] != gen {
		return false
	}
	h.entries[key] = append([]ChatMessage(nil), msgs...)
	return true
}

// Append adds msg at the end of key's history and returns the new length.
func (h *History) Append(key ConversationKey, msg ChatMessage) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[key] = append(h.entries[key], msg)
	return len(h.entries[key])
}

// Settle replaces the entry with the given id by a copy tagged d.
// It returns false when the entry is gone (a refetch replaced the slice).
func (h *History) Settle(key ConversationKey, id string, d Delivery) (ChatMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.entries[key]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID != id {
			continue
		}
		updated := make([]ChatMessage, len(msgs))
		copy(updated, msgs)
		updated[i] = msgs[i].withDelivery(d)
		h.entries[key] = updated
		return updated[i], true
	}
	return ChatMessage{}, false
}

// Messages returns a copy of key's history.
func (h *History) Messages(key ConversationKey) []ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]ChatMessage(nil), h.entries[key]...)
}

// Len returns the number of messages stored for key.
func (h *History) Len(key ConversationKey) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries[key])
}
