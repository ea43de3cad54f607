package core

import (
	"slices"
	"time"
)

// DefaultTimeLayout renders timestamps as wall-clock time.
const DefaultTimeLayout = "15:04:05"

// Normalizer turns store records into display messages for one operator.
type Normalizer struct {
	Identity Identity
	Layout   string
	Location *time.Location
}

// Format renders t for display.
func (n Normalizer) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout := n.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	if n.Location != nil {
		t = t.In(n.Location)
	}
	return t.Format(layout)
}

// Sender labels a record: SenderAdmin when the operator wrote it,
// otherwise the author's role.
func (n Normalizer) Sender(r Record) string {
	if r.SenderID != "" && r.SenderID == n.Identity.ID {
		return SenderAdmin
	}
	return r.SenderRole
}

// Message normalizes a single record.
func (n Normalizer) Message(r Record) ChatMessage {
	return ChatMessage{
		ID:        r.ID,
		Sender:    n.Sender(r),
		Text:      r.Text,
		Timestamp: r.CreatedAt,
		Time:      n.Format(r.CreatedAt),
		Delivery:  DeliveryStored,
	}
}

// Direct normalizes a direct conversation, which the store returns oldest first.
func (n Normalizer) Direct(records []Record) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, n.Message(r))
	}
	return msgs
}

// Broadcast normalizes broadcast history. The store returns it newest first,
// so the order is reversed to show the oldest message first.
func (n Normalizer) Broadcast(records []Record) []ChatMessage {
	msgs := n.Direct(records)
	slices.Reverse(msgs)
	return msgs
}
