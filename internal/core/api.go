package core

import "context"

// DirectSend is a message addressed to one user.
type DirectSend struct {
	SenderID     string
	SenderRole   string
	ReceiverID   string
	ReceiverRole string
	Type         string
	Text         string
}

// BroadcastSend is a message addressed to every member of a role.
type BroadcastSend struct {
	Role Role
	Type string
	Text string
}

// AnnouncementQuery filters the general broadcast history.
type AnnouncementQuery struct {
	UserID           string
	Role             string
	IncludeBroadcast bool
	IncludePrivate   bool
}

// MessageAPI is the part of the remote message store the chat session uses.
// Every failure it returns wraps ErrRemote.
type MessageAPI interface {
	// SendDirect delivers a message to one user.
	SendDirect(ctx context.Context, msg DirectSend) error

	// SendBroadcast delivers a message to a role group.
	SendBroadcast(ctx context.Context, msg BroadcastSend) error

	// Conversation returns the thread between userA and userB, oldest first.
	Conversation(ctx context.Context, userA, userB string) ([]Record, error)

	// BroadcastHistory returns the broadcasts sent to role, newest first.
	BroadcastHistory(ctx context.Context, role Role) ([]Record, error)

	// SearchUsers finds users of role whose name matches term.
	SearchUsers(ctx context.Context, role Role, term string) ([]UserRecord, error)
}

// BoardAPI is the part of the remote message store the announcement board uses.
type BoardAPI interface {
	// Announcements returns the general broadcast history.
	Announcements(ctx context.Context, q AnnouncementQuery) ([]Announcement, error)

	// Announce posts a broadcast on behalf of sender.
	Announce(ctx context.Context, sender Identity, text string) error
}
