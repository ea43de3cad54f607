package core

import (
	"fmt"
	"strings"
)

// Role is a group of end users addressed by broadcasts and used as a search filter.
type Role string

const (
	RoleDriver  Role = "driver"
	RoleManager Role = "manager"
	RoleOthers  Role = "others"
)

// Roles lists the roles in dashboard order.
var Roles = []Role{RoleDriver, RoleManager, RoleOthers}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleManager, RoleOthers:
		return true
	}
	return false
}

// BroadcastLabel is the chat list entry for the role's broadcast channel.
func (r Role) BroadcastLabel() string {
	switch r {
	case RoleDriver:
		return "Broadcast to Drivers"
	case RoleManager:
		return "Broadcast to Managers"
	case RoleOthers:
		return "Broadcast to Others"
	}
	return "Broadcast to " + string(r)
}

// ConversationKind discriminates ConversationKey.
type ConversationKind int

const (
	// ConversationBroadcast is the channel addressed to every member of a role.
	ConversationBroadcast ConversationKind = iota + 1
	// ConversationDirect is a one-on-one thread with a single user.
	ConversationDirect
)

// ConversationKey identifies one chat thread. It is comparable and used
// directly as a map key; the zero value identifies nothing.
type ConversationKey struct {
	Kind   ConversationKind
	Role   Role   // set for broadcasts
	UserID string // set for direct threads
}

// Broadcast returns the key of a role's broadcast channel.
func Broadcast(role Role) ConversationKey {
	return ConversationKey{Kind: ConversationBroadcast, Role: role}
}

// Direct returns the key of the thread with userID.
func Direct(userID string) ConversationKey {
	return ConversationKey{Kind: ConversationDirect, UserID: userID}
}

// IsZero reports whether k is the zero key.
func (k ConversationKey) IsZero() bool {
	return k.Kind == 0
}

// IsBroadcast reports whether k addresses a role group.
func (k ConversationKey) IsBroadcast() bool {
	return k.Kind == ConversationBroadcast
}

func (k ConversationKey) String() string {
	switch k.Kind {
	case ConversationBroadcast:
		return "broadcast:" + string(k.Role)
	case ConversationDirect:
		return "direct:" + k.UserID
	}
	return ""
}

// ParseConversationKey is the inverse of ConversationKey.String.
func ParseConversationKey(s string) (ConversationKey, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	switch kind {
	case "broadcast":
		role, err := ParseRole(value)
		if err != nil {
			return ConversationKey{}, err
		}
		return Broadcast(role), nil
	case "direct":
		return Direct(value), nil
	}
	return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
}

// UserRecord is a search hit. It is not cached beyond the current result set,
// except that the session remembers selected users to address direct sends.
type UserRecord struct {
	ID        string
	Name      string
	Role      Role
	AvatarRef string
}

// Identity is the operator on whose behalf messages are sent and fetched.
type Identity struct {
	ID   string
	Role string
}

// Target is what the operator picks in the chat list: a role or a user.
type Target struct {
	role Role
	user *UserRecord
}

// RoleTarget selects the broadcast channel of role.
func RoleTarget(role Role) Target {
	return Target{role: role}
}

// UserTarget selects the direct thread with u.
func UserTarget(u UserRecord) Target {
	return Target{user: &u}
}

// Key derives the conversation key the target points at.
func (t Target) Key() (ConversationKey, error) {
	switch {
	case t.user != nil:
		if t.user.ID == "" {
			return ConversationKey{}, fmt.Errorf("%w: user without id", ErrInvalidTarget)
		}
		return Direct(t.user.ID), nil
	case t.role != "":
		if !t.role.Valid() {
			return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidRole, t.role)
		}
		return Broadcast(t.role), nil
	}
	return ConversationKey{}, ErrInvalidTarget
}
