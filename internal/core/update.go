package core

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// subscriberBufferSize is the channel buffer for each observer.
const subscriberBufferSize = 64

// UpdateKind is a notification the session emits to observers.
type UpdateKind int

const (
	// UpdateSelection reports a new active conversation.
	UpdateSelection UpdateKind = iota
	// UpdateHistory delivers a freshly fetched history of the active conversation.
	UpdateHistory
	// UpdateAppended delivers an optimistic message appended to a conversation.
	UpdateAppended
	// UpdateDelivery reports the settled delivery of an optimistic message.
	UpdateDelivery
	// UpdateStatus reports a composer status change.
	UpdateStatus
	// UpdateCandidates delivers a new search result set.
	UpdateCandidates
	// UpdateDraft reports a change of the composer buffer.
	UpdateDraft
)

// Update describes a change of session state.
type Update struct {
	Kind       UpdateKind
	Key        ConversationKey
	Message    ChatMessage   // UpdateAppended, UpdateDelivery
	Messages   []ChatMessage // UpdateHistory
	Status     SendStatus
	Candidates []UserRecord
	Draft      string
	Error      *CoreError // set with UpdateStatus when a send failed
}

// observers fans updates out to subscribers. Slow subscribers lose updates
// rather than block the session.
type observers struct {
	mu   sync.RWMutex
	subs map[string]chan Update
	log  *zerolog.Logger
}

func newObservers(logger *zerolog.Logger) *observers {
	return &observers{
		subs: make(map[string]chan Update),
		log:  logger,
	}
}

func (o *observers) subscribe(ctx context.Context) (<-chan Update, func()) {
	id := uuid.NewString()
	ch := make(chan Update, subscriberBufferSize)

	o.mu.Lock()
	o.subs[id] = ch
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() { o.unsubscribe(id) })
	}

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}

func (o *observers) unsubscribe(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch, ok := o.subs[id]
	if !ok {
		return
	}
	delete(o.subs, id)
	close(ch)
}

func (o *observers) publish(u Update) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for id, ch := range o.subs {
		select {
		case ch <- u:
		default:
			o.log.Debug().Str("sub_id", id).Int("kind", int(u.Kind)).Msg("dropped update for slow observer")
		}
	}
}

func (o *observers) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
}
