package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Board is the general broadcast page: a history of announcements and a
// composer that waits for the store before showing anything new.
type Board struct {
	api      BoardAPI
	identity Identity
	log      *zerolog.Logger

	mu      sync.Mutex
	items   []Announcement
	status  SendStatus
	loading bool
}

// NewBoard creates a board for identity.
func NewBoard(api BoardAPI, identity Identity, logger *zerolog.Logger) *Board {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	boardLog := logger.With().Str("component", "board").Logger()
	return &Board{
		api:      api,
		identity: identity,
		log:      &boardLog,
	}
}

// Refresh reloads the announcement history. On failure the previous list is kept.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	items, err := b.api.Announcements(ctx, AnnouncementQuery{
		UserID:           b.identity.ID,
		Role:             b.identity.Role,
		IncludeBroadcast: true,
		IncludePrivate:   false,
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to load messages")
		return fmt.Errorf("refresh board: %w", err)
	}
	b.items = append([]Announcement(nil), items...)
	return nil
}

// Publish posts text to everyone and reloads the history on success.
// Blank text is rejected without a request.
func (b *Board) Publish(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	b.setStatus(StatusSending)
	if err := b.api.Announce(ctx, b.identity, text); err != nil {
		b.setStatus(StatusError)
		b.log.Error().Err(err).Msg("failed to send broadcast")
		return fmt.Errorf("publish: %w", err)
	}
	b.setStatus(StatusSent)

	// The post went out; a failed reload only leaves the old list on screen.
	_ = b.Refresh(ctx)
	return nil
}

// Announcements returns the loaded history.
func (b *Board) Announcements() []Announcement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Announcement(nil), b.items...)
}

// Loading reports whether a refresh is in flight.
func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Status returns the composer status.
func (b *Board) Status() SendStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// DismissStatus returns the composer status to idle.
func (b *Board) DismissStatus() {
	b.setStatus(StatusIdle)
}

func (b *Board) setStatus(st SendStatus) {
	b.mu.Lock()
	b.status = st
	b.mu.Unlock()
}
