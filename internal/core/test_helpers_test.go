package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func mustUpdate(t *testing.T, ch <-chan Update, kind UpdateKind) Update {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				t.Fatalf("update channel closed before kind %v", kind)
			}
			if u.Kind == kind {
				return u
			}
		case <-deadline:
			t.Fatalf("expected update kind %v not received", kind)
			return Update{}
		}
	}
}

// drainUpdates returns everything buffered on ch without blocking.
func drainUpdates(ch <-chan Update) []Update {
	var out []Update
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, u)
		default:
			return out
		}
	}
}

// fakeAPI is an in-memory MessageAPI and BoardAPI.
type fakeAPI struct {
	mu sync.Mutex

	direct    map[string][]Record
	broadcast map[Role][]Record
	users     []UserRecord
	board     []Announcement

	fetchErr  error
	sendErr   error
	searchErr error

	// broadcastFn overrides broadcast lookups; call counts from 1 per role.
	broadcastFn func(ctx context.Context, role Role, call int) ([]Record, error)

	fetches        map[ConversationKey]int
	directSends    []DirectSend
	broadcastSends []BroadcastSend
	searches       []string
	announced      []string
	boardQueries   []AnnouncementQuery
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		direct:    make(map[string][]Record),
		broadcast: make(map[Role][]Record),
		fetches:   make(map[ConversationKey]int),
	}
}

func (f *fakeAPI) SendDirect(_ context.Context, msg DirectSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directSends = append(f.directSends, msg)
	return f.sendErr
}

func (f *fakeAPI) SendBroadcast(_ context.Context, msg BroadcastSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcastSends = append(f.broadcastSends, msg)
	return f.sendErr
}

func (f *fakeAPI) Conversation(_ context.Context, _, userB string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[Direct(userB)]++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]Record(nil), f.direct[userB]...), nil
}

func (f *fakeAPI) BroadcastHistory(ctx context.Context, role Role) ([]Record, error) {
	f.mu.Lock()
	f.fetches[Broadcast(role)]++
	call := f.fetches[Broadcast(role)]
	fn := f.broadcastFn
	fetchErr := f.fetchErr
	records := append([]Record(nil), f.broadcast[role]...)
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, role, call)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return records, nil
}

func (f *fakeAPI) SearchUsers(_ context.Context, role Role, term string) ([]UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, string(role)+":"+term)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []UserRecord
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeAPI) Announcements(_ context.Context, q AnnouncementQuery) ([]Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boardQueries = append(f.boardQueries, q)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]Announcement(nil), f.board...), nil
}

func (f *fakeAPI) Announce(_ context.Context, _ Identity, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.announced = append(f.announced, text)
	f.board = append([]Announcement{{ID: fmt.Sprintf("b%d", len(f.board)+1), Text: text}}, f.board...)
	return nil
}

func (f *fakeAPI) fetchCount(key ConversationKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[key]
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeAPI) setFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeAPI) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

var testIdentity = Identity{ID: "admin-1", Role: "admin"}

var testClock = time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T, api MessageAPI) *Session {
	t.Helper()

	var (
		mu  sync.Mutex
		ids int
	)
	s := NewSession(SessionConfig{
		API:      api,
		Identity: testIdentity,
		Location: time.UTC,
		Now:      func() time.Time { return testClock },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			ids++
			return fmt.Sprintf("local-%d", ids)
		},
	})
	t.Cleanup(s.Close)
	return s
}

func records(role string, texts ...string) []Record {
	out := make([]Record, 0, len(texts))
	for i, text := range texts {
		out = append(out, Record{
			ID:         fmt.Sprintf("%s-%d", role, i),
			SenderRole: role,
			Text:       text,
			CreatedAt:  testClock.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func texts(msgs []ChatMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
