package http

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-admin/internal/config"
	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/metrics"
	"github.com/vovakirdan/wirechat-admin/internal/store"
	"github.com/vovakirdan/wirechat-admin/internal/store/sqlite"
)

var testIdentity = core.Identity{ID: "admin-1", Role: "admin"}

var errUpstream = fmt.Errorf("%w: status 500", core.ErrRemote)

// stubStore is an in-memory message store.
type stubStore struct {
	mu sync.Mutex

	broadcast map[core.Role][]core.Record
	direct    map[string][]core.Record
	users     []core.UserRecord
	board     []core.Announcement

	sendErr error

	directSends    []core.DirectSend
	broadcastSends []core.BroadcastSend
	searches       int
}

func newStubStore() *stubStore {
	return &stubStore{
		broadcast: make(map[core.Role][]core.Record),
		direct:    make(map[string][]core.Record),
	}
}

func (s *stubStore) SendDirect(_ context.Context, msg core.DirectSend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directSends = append(s.directSends, msg)
	return s.sendErr
}

func (s *stubStore) SendBroadcast(_ context.Context, msg core.BroadcastSend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastSends = append(s.broadcastSends, msg)
	return s.sendErr
}

func (s *stubStore) Conversation(_ context.Context, _, userB string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.direct[userB]...), nil
}

func (s *stubStore) BroadcastHistory(_ context.Context, role core.Role) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.broadcast[role]...), nil
}

func (s *stubStore) SearchUsers(_ context.Context, role core.Role, _ string) ([]core.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	var out []core.UserRecord
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubStore) Announcements(_ context.Context, _ core.AnnouncementQuery) ([]core.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Announcement(nil), s.board...), nil
}

func (s *stubStore) Announce(_ context.Context, _ core.Identity, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.board = append([]core.Announcement{{ID: fmt.Sprintf("a%d", len(s.board)+1), Text: text}}, s.board...)
	return nil
}

func (s *stubStore) setSendErr(err error) {
	s.mu.Lock()
	s.sendErr = err
	s.mu.Unlock()
}

type testEnv struct {
	server  *httptest.Server
	store   *stubStore
	session *core.Session
	ledger  store.SendLog
	ws      *WSHandler
}

func newTestEnv(t *testing.T, withLedger bool) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	st := newStubStore()
	st.broadcast[core.RoleDriver] = []core.Record{
		{ID: "b2", SenderID: testIdentity.ID, SenderRole: "admin", Text: "second", CreatedAt: time.Date(2025, 7, 15, 9, 1, 0, 0, time.UTC)},
		{ID: "b1", SenderID: testIdentity.ID, SenderRole: "admin", Text: "first", CreatedAt: time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC)},
	}

	var ledger store.SendLog
	if withLedger {
		sq, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = sq.Close() })
		ledger = sq
	}

	m := metrics.New()
	session := core.NewSession(core.SessionConfig{
		API:      st,
		Identity: testIdentity,
		Ledger:   ledger,
		Metrics:  m,
		Logger:   &logger,
		Location: time.UTC,
	})
	ctx, cancel := context.WithCancel(context.Background())
	session.Start(ctx)
	session.Wait()

	board := core.NewBoard(st, testIdentity, &logger)

	cfg := config.Default()
	ws := NewWSHandler(session, cfg.WS, &logger)
	router := NewRouter(Deps{Session: session, Board: board, Ledger: ledger, Metrics: m}, ws, &logger)
	ts := httptest.NewServer(router)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		session.Close()
	})

	return &testEnv{server: ts, store: st, session: session, ledger: ledger, ws: ws}
}
