package core

import "strings"

// ChatEntry is one row of the chat list.
type ChatEntry struct {
	Label string
	Key   ConversationKey
	User  *UserRecord // nil for broadcast rows
}

// View is a snapshot of what the dashboard shows.
type View struct {
	Active     ConversationKey
	Title      string
	Filter     Role
	SearchTerm string
	Chats      []ChatEntry
	Messages   []ChatMessage
	Status     SendStatus
	Draft      string
}

// View captures the current dashboard state. While a search term is set the
// chat list shows the candidates; otherwise it shows the filter's broadcast.
func (s *Session) View() View {
	s.mu.Lock()
	v := View{
		Active:     s.active,
		Title:      s.titleLocked(s.active),
		Filter:     s.filter,
		SearchTerm: s.searchTerm,
		Status:     s.status,
		Draft:      s.draft,
	}
	if strings.TrimSpace(s.searchTerm) != "" {
		v.Chats = make([]ChatEntry, 0, len(s.candidates))
		for _, u := range s.candidates {
			u := u
			label := u.Name
			if label == "" {
				label = u.ID
			}
			v.Chats = append(v.Chats, ChatEntry{Label: label, Key: Direct(u.ID), User: &u})
		}
	} else {
		v.Chats = []ChatEntry{{Label: s.filter.BroadcastLabel(), Key: Broadcast(s.filter)}}
	}
	s.mu.Unlock()

	v.Messages = s.history.Messages(v.Active)
	return v
}

// Candidates returns the current search result set.
func (s *Session) Candidates() []UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UserRecord(nil), s.candidates...)
}

func (s *Session) titleLocked(key ConversationKey) string {
	switch key.Kind {
	case ConversationBroadcast:
		return key.Role.BroadcastLabel()
	case ConversationDirect:
		if peer, ok := s.peers[key.UserID]; ok && peer.Name != "" {
			return peer.Name
		}
		return key.UserID
	}
	return ""
}
