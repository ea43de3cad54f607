package core

import "time"

// SenderAdmin labels messages written by the operator.
const SenderAdmin = "Admin"

// MessageTypeText is the only message type the store accepts from the dashboard.
const MessageTypeText = "text"

// Delivery tags where a displayed message came from and whether it reached the store.
type Delivery string

const (
	// DeliveryStored marks messages read back from the store.
	DeliveryStored Delivery = "stored"
	// DeliveryPending marks an optimistic entry whose request is in flight.
	DeliveryPending Delivery = "pending"
	// DeliverySent marks an optimistic entry the store accepted.
	DeliverySent Delivery = "sent"
	// DeliveryFailed marks an optimistic entry the store rejected. It stays in
	// the history so the operator can see what did not go out.
	DeliveryFailed Delivery = "failed"
)

// ChatMessage is the display model of one message. Values are never modified
// once stored; a delivery change replaces the entry with a tagged copy.
type ChatMessage struct {
	ID        string
	Sender    string // SenderAdmin or the author's role
	Text      string
	Timestamp time.Time
	Time      string // Timestamp rendered for display
	Delivery  Delivery
}

func (m ChatMessage) withDelivery(d Delivery) ChatMessage {
	m.Delivery = d
	return m
}

// Record is a message as returned by the store, before normalization.
type Record struct {
	ID         string
	SenderID   string
	SenderRole string
	Text       string
	CreatedAt  time.Time
}

// Announcement is an entry of the general broadcast history.
type Announcement struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

// SendStatus is the composer's transient status indicator.
type SendStatus int

const (
	StatusIdle SendStatus = iota
	StatusSending
	StatusSent
	StatusError
)

func (s SendStatus) String() string {
	switch s {
	case StatusSending:
		return "sending"
	case StatusSent:
		return "sent"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}
