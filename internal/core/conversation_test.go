package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationKeyRoundTrip(t *testing.T) {
	for _, key := range []ConversationKey{Broadcast(RoleDriver), Broadcast(RoleOthers), Direct("68767ca8")} {
		parsed, err := ParseConversationKey(key.String())
		require.NoError(t, err)
		assert.Equal(t, key, parsed)
	}
}

func TestParseConversationKeyErrors(t *testing.T) {
	for _, s := range []string{"", "broadcast:", "broadcast:pilots", "group:1", "direct"} {
		_, err := ParseConversationKey(s)
		assert.Error(t, err, s)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Manager ")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNormalizerSenderLabel(t *testing.T) {
	n := Normalizer{Identity: testIdentity, Location: time.UTC}

	assert.Equal(t, SenderAdmin, n.Sender(Record{SenderID: "admin-1", SenderRole: "admin"}))
	assert.Equal(t, "driver", n.Sender(Record{SenderID: "7", SenderRole: "driver"}))
	assert.Equal(t, "manager", n.Sender(Record{SenderRole: "manager"}))
}

func TestNormalizerFormatsTimestamp(t *testing.T) {
	n := Normalizer{Identity: testIdentity, Layout: "2006-01-02 15:04", Location: time.UTC}

	msg := n.Message(Record{ID: "r1", Text: "hi", CreatedAt: testClock})
	assert.Equal(t, "2025-07-15 09:30", msg.Time)
	assert.Equal(t, testClock, msg.Timestamp)
	assert.Equal(t, DeliveryStored, msg.Delivery)

	assert.Equal(t, "", n.Format(time.Time{}))
}

func TestToCoreError(t *testing.T) {
	assert.Nil(t, ToCoreError(nil))
	assert.Equal(t, ErrCodeRemote, ToCoreError(errStoreDown).Code)
	assert.Equal(t, ErrCodeEmptyText, ToCoreError(ErrEmptyText).Code)
	assert.Equal(t, ErrCodeInvalidRole, ToCoreError(ErrInvalidRole).Code)
}
