package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardRefreshQueriesBroadcastsOnly(t *testing.T) {
	api := newFakeAPI()
	api.board = []Announcement{{ID: "b1", Text: "road closed"}}
	b := NewBoard(api, testIdentity, nil)

	require.NoError(t, b.Refresh(context.Background()))
	assert.Len(t, b.Announcements(), 1)
	assert.False(t, b.Loading())

	require.Len(t, api.boardQueries, 1)
	assert.Equal(t, AnnouncementQuery{
		UserID:           "admin-1",
		Role:             "admin",
		IncludeBroadcast: true,
		IncludePrivate:   false,
	}, api.boardQueries[0])
}

func TestBoardRefreshFailureKeepsList(t *testing.T) {
	api := newFakeAPI()
	api.board = []Announcement{{ID: "b1", Text: "road closed"}}
	b := NewBoard(api, testIdentity, nil)
	require.NoError(t, b.Refresh(context.Background()))

	api.setFetchErr(errStoreDown)
	require.ErrorIs(t, b.Refresh(context.Background()), ErrRemote)
	assert.Len(t, b.Announcements(), 1)
}

func TestBoardPublish(t *testing.T) {
	api := newFakeAPI()
	b := NewBoard(api, testIdentity, nil)

	require.NoError(t, b.Publish(context.Background(), "  shift change at 6  "))
	assert.Equal(t, StatusSent, b.Status())
	assert.Equal(t, []string{"shift change at 6"}, api.announced)

	// the history is reloaded after a successful post
	require.Len(t, b.Announcements(), 1)
	assert.Equal(t, "shift change at 6", b.Announcements()[0].Text)

	b.DismissStatus()
	assert.Equal(t, StatusIdle, b.Status())
}

func TestBoardPublishFailure(t *testing.T) {
	api := newFakeAPI()
	api.setSendErr(errStoreDown)
	b := NewBoard(api, testIdentity, nil)

	err := b.Publish(context.Background(), "hello")
	require.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, StatusError, b.Status())
	assert.Empty(t, b.Announcements())
}

func TestBoardPublishBlankIsNoop(t *testing.T) {
	api := newFakeAPI()
	b := NewBoard(api, testIdentity, nil)

	assert.ErrorIs(t, b.Publish(context.Background(), "   "), ErrEmptyText)
	assert.Equal(t, StatusIdle, b.Status())
	assert.Empty(t, api.announced)
}
