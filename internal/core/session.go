package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/metrics"
	"github.com/vovakirdan/wirechat-admin/internal/store"
	"github.com/vovakirdan/wirechat-admin/internal/utils"
)

// SessionConfig wires a Session. API and Identity are required.
type SessionConfig struct {
	API         MessageAPI
	Identity    Identity
	Ledger      store.SendLog // optional send audit trail
	Metrics     *metrics.Metrics
	Logger      *zerolog.Logger
	TimeLayout  string
	Location    *time.Location
	InitialRole Role

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Session is one operator's dashboard state: the active conversation, the
// per-conversation message history, the search candidates and the composer.
type Session struct {
	api        MessageAPI
	identity   Identity
	ledger     store.SendLog
	metrics    *metrics.Metrics
	log        *zerolog.Logger
	normalizer Normalizer
	history    *History
	observers  *observers
	now        func() time.Time
	newID      func() string

	mu         sync.Mutex
	ctx        context.Context
	active     ConversationKey
	filter     Role
	searchTerm string
	searchSeq  uint64
	candidates []UserRecord
	peers      map[string]UserRecord
	draft      string
	status     SendStatus
	closed     bool

	wg sync.WaitGroup
}

// NewSession builds a session whose active conversation is the broadcast
// channel of cfg.InitialRole (drivers when unset). Nothing is fetched until Start.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	role := cfg.InitialRole
	if !role.Valid() {
		role = RoleDriver
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = utils.NewID
	}

	sessionLog := logger.With().Str("component", "session").Str("admin_id", cfg.Identity.ID).Logger()

	return &Session{
		api:      cfg.API,
		identity: cfg.Identity,
		ledger:   cfg.Ledger,
		metrics:  cfg.Metrics,
		log:      &sessionLog,
		normalizer: Normalizer{
			Identity: cfg.Identity,
			Layout:   cfg.TimeLayout,
			Location: cfg.Location,
		},
		history:   NewHistory(),
		observers: newObservers(&sessionLog),
		now:       now,
		newID:     newID,
		ctx:       context.Background(),
		active:    Broadcast(role),
		filter:    role,
		peers:     make(map[string]UserRecord),
	}
}

// Start binds background fetches to ctx and synchronizes the initial conversation.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	key := s.active
	s.mu.Unlock()

	s.startSync(key)
}

// Wait blocks until every background fetch has resolved.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close waits for background fetches and closes all observer channels.
// Selections made after Close no longer start fetches.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	s.observers.close()
}

// Subscribe registers an observer. The channel is closed when ctx is done,
// when cancel is called or when the session closes.
func (s *Session) Subscribe(ctx context.Context) (<-chan Update, func()) {
	return s.observers.subscribe(ctx)
}

// Identity returns the operator identity.
func (s *Session) Identity() Identity {
	return s.identity
}

// Active returns the active conversation key.
func (s *Session) Active() ConversationKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Messages returns the history currently held for key.
func (s *Session) Messages(key ConversationKey) []ChatMessage {
	return s.history.Messages(key)
}

// Select makes target the active conversation. Picking a role different from
// the current filter also switches the filter and clears the search. When the
// key changes, one background fetch for the new key starts; selecting the
// active key again does nothing. Existing histories are never touched here.
func (s *Session) Select(target Target) (bool, error) {
	key, err := target.Key()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	searchCleared := false
	if target.user != nil {
		s.rememberPeer(*target.user)
	} else if target.role != s.filter {
		s.filter = target.role
		searchCleared = s.searchTerm != "" || len(s.candidates) > 0
		s.searchTerm = ""
		s.candidates = nil
		s.searchSeq++
	}
	if key == s.active {
		s.mu.Unlock()
		if searchCleared {
			s.observers.publish(Update{Kind: UpdateCandidates})
		}
		return false, nil
	}
	s.active = key
	s.mu.Unlock()

	s.log.Debug().Str("conversation", key.String()).Msg("conversation selected")
	if searchCleared {
		s.observers.publish(Update{Kind: UpdateCandidates})
	}
	s.observers.publish(Update{Kind: UpdateSelection, Key: key, Messages: s.history.Messages(key)})

	s.startSync(key)
	return true, nil
}

func (s *Session) startSync(key ConversationKey) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Debug().Str("conversation", key.String()).Msg("session closed, fetch skipped")
		return
	}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_ = s.Sync(ctx, key)
	}()
}

// Sync fetches the history of key and replaces whatever is held for it.
// A failed fetch leaves the previous history in place. A fetch overtaken by a
// newer fetch of the same key is discarded. A result for a key that is no
// longer active is stored in its own slot without being announced.
func (s *Session) Sync(ctx context.Context, key ConversationKey) error {
	gen := s.history.Begin(key)

	var (
		records []Record
		err     error
	)
	switch key.Kind {
	case ConversationDirect:
		records, err = s.api.Conversation(ctx, s.identity.ID, key.UserID)
	case ConversationBroadcast:
		records, err = s.api.BroadcastHistory(ctx, key.Role)
	default:
		return ErrInvalidTarget
	}
	if err != nil {
		s.log.Warn().Err(err).Str("conversation", key.String()).Msg("failed to fetch messages")
		return fmt.Errorf("sync %s: %w", key, err)
	}

	var msgs []ChatMessage
	if key.IsBroadcast() {
		msgs = s.normalizer.Broadcast(records)
	} else {
		msgs = s.normalizer.Direct(records)
	}

	if !s.history.Replace(key, gen, msgs) {
		s.metrics.StaleFetch()
		s.log.Debug().Str("conversation", key.String()).Uint64("generation", gen).Msg("discarded superseded fetch")
		return nil
	}

	s.log.Debug().Str("conversation", key.String()).Int("count", len(msgs)).Msg("history synchronized")
	if s.Active() == key {
		s.observers.publish(Update{Kind: UpdateHistory, Key: key, Messages: s.history.Messages(key)})
	}
	return nil
}

// Search looks up users of role by name. An empty term clears the candidates
// without calling the store. Results replace the previous candidate list;
// neither the history nor the active conversation is affected.
func (s *Session) Search(ctx context.Context, role Role, term string) ([]UserRecord, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	trimmed := strings.TrimSpace(term)

	s.mu.Lock()
	s.searchTerm = term
	s.searchSeq++
	seq := s.searchSeq
	if trimmed == "" {
		s.candidates = nil
		s.mu.Unlock()
		s.observers.publish(Update{Kind: UpdateCandidates})
		return []UserRecord{}, nil
	}
	s.mu.Unlock()

	users, err := s.api.SearchUsers(ctx, role, trimmed)
	if err != nil {
		s.log.Warn().Err(err).Str("role", string(role)).Str("term", trimmed).Msg("user search failed")
		return nil, fmt.Errorf("search %s: %w", role, err)
	}
	if users == nil {
		users = []UserRecord{}
	}

	s.mu.Lock()
	current := seq == s.searchSeq
	if current {
		s.candidates = append([]UserRecord(nil), users...)
	}
	s.mu.Unlock()

	if current {
		s.observers.publish(Update{Kind: UpdateCandidates, Candidates: users})
	}
	return users, nil
}

// SetDraft replaces the composer buffer.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.observers.publish(Update{Kind: UpdateDraft, Draft: text})
}

// Draft returns the composer buffer.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Submit sends the composer buffer to the active conversation. The buffer is
// cleared only when it held non-blank text.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	text := s.draft
	key := s.active
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return ErrEmptyText
	}
	s.draft = ""
	s.mu.Unlock()

	s.observers.publish(Update{Kind: UpdateDraft})
	return s.Send(ctx, key, text)
}

// SendTo sends text to target, remembering the addressed user for later sends.
func (s *Session) SendTo(ctx context.Context, target Target, text string) error {
	key, err := target.Key()
	if err != nil {
		return err
	}
	if target.user != nil {
		s.mu.Lock()
		s.rememberPeer(*target.user)
		s.mu.Unlock()
	}
	return s.Send(ctx, key, text)
}

// Send appends an Admin message to key's history right away, then asks the
// store to deliver it. The entry is tagged sent or failed afterwards but is
// never removed, so a rejected message stays visible until the next fetch.
// Blank text, and a direct key whose receiver role is unknown, are rejected
// without touching any state.
func (s *Session) Send(ctx context.Context, key ConversationKey, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	if key.IsZero() {
		return ErrInvalidTarget
	}
	var peer UserRecord
	if key.Kind == ConversationDirect {
		var ok bool
		if peer, ok = s.peer(key.UserID); !ok {
			return fmt.Errorf("%w: receiver role of user %s is unknown", ErrInvalidTarget, key.UserID)
		}
	}

	s.setStatus(StatusSending, nil)

	now := s.now()
	msg := ChatMessage{
		ID:        s.newID(),
		Sender:    SenderAdmin,
		Text:      text,
		Timestamp: now,
		Time:      s.normalizer.Format(now),
		Delivery:  DeliveryPending,
	}
	s.history.Append(key, msg)
	s.observers.publish(Update{Kind: UpdateAppended, Key: key, Message: msg})
	s.recordSend(ctx, key, msg)

	err := s.deliver(ctx, key, peer, text)

	delivery := DeliverySent
	if err != nil {
		delivery = DeliveryFailed
		s.log.Error().Err(err).Str("conversation", key.String()).Str("message_id", msg.ID).Msg("failed to send message")
	}
	if settled, ok := s.history.Settle(key, msg.ID, delivery); ok {
		s.observers.publish(Update{Kind: UpdateDelivery, Key: key, Message: settled})
	}
	s.settleSend(ctx, msg.ID, delivery, err)
	s.metrics.SendSettled(string(delivery))

	if err != nil {
		err = fmt.Errorf("send to %s: %w", key, err)
		s.setStatus(StatusError, ToCoreError(err))
		return err
	}
	s.setStatus(StatusSent, nil)
	return nil
}

// rememberPeer stores u, keeping a previously known role when u has none.
// Callers hold s.mu.
func (s *Session) rememberPeer(u UserRecord) {
	if prev, ok := s.peers[u.ID]; ok && u.Role == "" {
		u.Role = prev.Role
	}
	s.peers[u.ID] = u
}

// peer returns the user addressed by a direct key. Only users with a known
// role can receive messages.
func (s *Session) peer(userID string) (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.peers[userID]
	return u, ok && u.Role != ""
}

func (s *Session) deliver(ctx context.Context, key ConversationKey, peer UserRecord, text string) error {
	switch key.Kind {
	case ConversationDirect:
		return s.api.SendDirect(ctx, DirectSend{
			SenderID:     s.identity.ID,
			SenderRole:   s.identity.Role,
			ReceiverID:   key.UserID,
			ReceiverRole: string(peer.Role),
			Type:         MessageTypeText,
			Text:         text,
		})
	case ConversationBroadcast:
		return s.api.SendBroadcast(ctx, BroadcastSend{
			Role: key.Role,
			Type: MessageTypeText,
			Text: text,
		})
	}
	return ErrInvalidTarget
}

// Ledger failures are logged and never change the outcome of a send.
func (s *Session) recordSend(ctx context.Context, key ConversationKey, msg ChatMessage) {
	if s.ledger == nil {
		return
	}
	rec := &store.SendRecord{
		ID:           msg.ID,
		Conversation: key.String(),
		Text:         msg.Text,
		Delivery:     store.DeliveryPending,
		CreatedAt:    msg.Timestamp.UTC(),
	}
	if err := s.ledger.RecordSend(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to record send")
	}
}

func (s *Session) settleSend(ctx context.Context, id string, d Delivery, sendErr error) {
	if s.ledger == nil {
		return
	}
	errMsg := ""
	if sendErr != nil {
		errMsg = sendErr.Error()
	}
	if err := s.ledger.UpdateSendDelivery(ctx, id, string(d), errMsg); err != nil {
		s.log.Warn().Err(err).Str("message_id", id).Msg("failed to update send record")
	}
}

// Status returns the composer status.
func (s *Session) Status() SendStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// DismissStatus returns the composer status to idle.
func (s *Session) DismissStatus() {
	s.setStatus(StatusIdle, nil)
}

func (s *Session) setStatus(st SendStatus, cerr *CoreError) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.observers.publish(Update{Kind: UpdateStatus, Status: st, Error: cerr})
}
