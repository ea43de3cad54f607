package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the dashboard.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeSelect  = "select"
	InboundTypeSearch  = "search"
	InboundTypeDraft   = "draft"
	InboundTypeSend    = "send"
	InboundTypeDismiss = "dismiss"
	InboundTypeSync    = "sync"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameView       = "view"
	EventNameSelection  = "selection"
	EventNameHistory    = "history"
	EventNameMessage    = "message"
	EventNameDelivery   = "delivery"
	EventNameStatus     = "status"
	EventNameCandidates = "candidates"
	EventNameDraft      = "draft"
)

// SelectData picks a conversation: either a role broadcast or a user.
type SelectData struct {
	Role string `json:"role,omitempty"`
	User *User  `json:"user,omitempty"`
}

// SearchData queries users of a role by name.
type SearchData struct {
	Role string `json:"role"`
	Term string `json:"term"`
}

// DraftData replaces the composer buffer.
type DraftData struct {
	Text string `json:"text"`
}

// SendData sends text. With an empty Conversation the draft's target is the
// active conversation; with an empty Text the draft itself is submitted.
// User addresses a direct thread that was never selected and takes precedence
// over Conversation.
type SendData struct {
	Conversation string `json:"conversation,omitempty"`
	User         *User  `json:"user,omitempty"`
	Text         string `json:"text,omitempty"`
}

// SyncData forces a refetch of one conversation, the active one when empty.
type SyncData struct {
	Conversation string `json:"conversation,omitempty"`
}

// Outbound is the envelope for messages sent to the dashboard.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is a person that can be messaged directly.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Message is one rendered chat line.
type Message struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	TS       int64  `json:"ts,omitempty"`
	Delivery string `json:"delivery"`
}

// Chat is one row of the chat list.
type Chat struct {
	Label        string `json:"label"`
	Conversation string `json:"conversation"`
	User         *User  `json:"user,omitempty"`
}

// EventView is the full dashboard snapshot, sent on connect and on request.
type EventView struct {
	Conversation string    `json:"conversation"`
	Title        string    `json:"title"`
	Filter       string    `json:"filter"`
	SearchTerm   string    `json:"search_term"`
	Chats        []Chat    `json:"chats"`
	Messages     []Message `json:"messages"`
	Status       string    `json:"status"`
	Draft        string    `json:"draft"`
}

// EventSelection reports a new active conversation.
type EventSelection struct {
	Conversation string `json:"conversation"`
}

// EventHistory carries a freshly fetched history.
type EventHistory struct {
	Conversation string    `json:"conversation"`
	Messages     []Message `json:"messages"`
}

// EventMessage carries a message appended to a conversation, or the settled
// copy of one when sent as a delivery event.
type EventMessage struct {
	Conversation string  `json:"conversation"`
	Message      Message `json:"message"`
}

// EventStatus reports the composer status.
type EventStatus struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
}

// EventCandidates carries the latest search results.
type EventCandidates struct {
	Users []User `json:"users"`
}

// EventDraft reports the composer buffer.
type EventDraft struct {
	Text string `json:"text"`
}

// Announcement is an entry on the general broadcast board.
type Announcement struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
