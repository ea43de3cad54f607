package remote

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/wirechat-admin/internal/core"
)

// Request bodies, field names as the store expects them.

type sendRequest struct {
	SenderID     string `json:"senderId"`
	SenderRole   string `json:"senderRole"`
	ReceiverRole string `json:"receiverRole"`
	ReceiverID   string `json:"receiverId"`
	Type         string `json:"type"`
	Text         string `json:"text"`
}

type broadcastRequest struct {
	Role string `json:"role"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type announceRequest struct {
	SenderID    string `json:"senderId"`
	SenderRole  string `json:"senderRole"`
	IsBroadcast bool   `json:"isBroadcast"`
	Type        string `json:"type"`
	Text        string `json:"text"`
}

// party is a sender or creator reference; the store emits either id or _id.
type party struct {
	ID   string `json:"id"`
	OID  string `json:"_id"`
	Role string `json:"role"`
}

func (p *party) id() string {
	if p == nil {
		return ""
	}
	if p.ID != "" {
		return p.ID
	}
	return p.OID
}

func (p *party) role() string {
	if p == nil {
		return ""
	}
	return p.Role
}

type message struct {
	ID        string    `json:"_id"`
	Sender    *party    `json:"sender"`
	CreatedBy *party    `json:"createdBy"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// record maps a stored message to the core form. Direct messages carry a
// sender, broadcasts a creator.
func (m message) record() core.Record {
	author := m.Sender
	if author == nil {
		author = m.CreatedBy
	}
	return core.Record{
		ID:         m.ID,
		SenderID:   author.id(),
		SenderRole: author.role(),
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func (m message) announcement() core.Announcement {
	return core.Announcement{
		ID:        m.ID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

type user struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

type searchResponse struct {
	Users json.RawMessage `json:"users"`
}

func (u user) record() core.UserRecord {
	return core.UserRecord{
		ID:        u.ID,
		Name:      u.Name,
		Role:      core.Role(u.Role),
		AvatarRef: u.AvatarURL,
	}
}
