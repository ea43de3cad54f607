package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/proto"
)

func doJSON(t *testing.T, env *testEnv, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestViewShowsInitialBroadcast(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	view := decodeBody[proto.EventView](t, resp)
	assert.Equal(t, "broadcast:driver", view.Conversation)
	assert.Equal(t, "Broadcast to Drivers", view.Title)
	require.Len(t, view.Chats, 1)
	assert.Equal(t, "broadcast:driver", view.Chats[0].Conversation)

	// broadcast history is shown oldest first
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "first", view.Messages[0].Text)
	assert.Equal(t, core.SenderAdmin, view.Messages[0].Sender)
	assert.Equal(t, "idle", view.Status)
}

func TestSelectRole(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPost, "/api/select", `{"role":"manager"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sel := decodeBody[SelectResponse](t, resp)
	assert.True(t, sel.Changed)
	assert.Equal(t, "broadcast:manager", sel.View.Conversation)
	assert.Equal(t, "manager", sel.View.Filter)

	resp = doJSON(t, env, http.MethodPost, "/api/select", `{"role":"manager"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodeBody[SelectResponse](t, resp).Changed)
}

func TestSelectRejectsBadTargets(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPost, "/api/select", `{"role":"pilots"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrCodeInvalidRole, decodeBody[ErrorResponse](t, resp).Code)

	resp = doJSON(t, env, http.MethodPost, "/api/select", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrCodeInvalidTarget, decodeBody[ErrorResponse](t, resp).Code)

	resp = doJSON(t, env, http.MethodPost, "/api/select", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchAndDirectSend(t *testing.T) {
	env := newTestEnv(t, true)
	env.store.mu.Lock()
	env.store.users = []core.UserRecord{{ID: "u7", Name: "Ann", Role: core.RoleDriver}}
	env.store.mu.Unlock()

	resp := doJSON(t, env, http.MethodPost, "/api/search", `{"role":"driver","term":"an"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeBody[SearchResponse](t, resp).Users
	require.Len(t, users, 1)

	resp = doJSON(t, env, http.MethodGet, "/api/view", "")
	view := decodeBody[proto.EventView](t, resp)
	require.Len(t, view.Chats, 1)
	assert.Equal(t, "direct:u7", view.Chats[0].Conversation)
	assert.Equal(t, "Ann", view.Chats[0].Label)

	resp = doJSON(t, env, http.MethodPost, "/api/select", `{"user":{"id":"u7","name":"Ann","role":"driver"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.session.Wait()

	resp = doJSON(t, env, http.MethodPost, "/api/send", `{"text":"  on my way "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sent", decodeBody[SendResponse](t, resp).Status)

	require.Len(t, env.store.directSends, 1)
	assert.Equal(t, core.DirectSend{
		SenderID:     "admin-1",
		SenderRole:   "admin",
		ReceiverID:   "u7",
		ReceiverRole: "driver",
		Type:         core.MessageTypeText,
		Text:         "on my way",
	}, env.store.directSends[0])

	resp = doJSON(t, env, http.MethodGet, "/api/sends", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sends := decodeBody[[]SendRecordResponse](t, resp)
	require.Len(t, sends, 1)
	assert.Equal(t, "direct:u7", sends[0].Conversation)
	assert.Equal(t, "sent", sends[0].Delivery)
}

func TestSearchEmptyTermSkipsStore(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPost, "/api/search", `{"role":"driver","term":"  "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[SearchResponse](t, resp).Users)
	assert.Zero(t, env.store.searches)
}

func TestSendFailureKeepsMessage(t *testing.T) {
	env := newTestEnv(t, true)
	env.store.setSendErr(errUpstream)

	resp := doJSON(t, env, http.MethodPost, "/api/send", `{"conversation":"broadcast:driver","text":"hello"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, core.ErrCodeRemote, decodeBody[ErrorResponse](t, resp).Code)

	view := decodeBody[proto.EventView](t, doJSON(t, env, http.MethodGet, "/api/view", ""))
	assert.Equal(t, "error", view.Status)
	require.Len(t, view.Messages, 3)
	last := view.Messages[2]
	assert.Equal(t, "hello", last.Text)
	assert.Equal(t, string(core.DeliveryFailed), last.Delivery)

	resp = doJSON(t, env, http.MethodGet, "/api/sends?delivery=failed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]SendRecordResponse](t, resp), 1)

	resp = doJSON(t, env, http.MethodPost, "/api/status/dismiss", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, core.StatusIdle, env.session.Status())
}

func TestDirectSendToUnselectedUser(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPost, "/api/send", `{"conversation":"direct:u9","text":"hi"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrCodeInvalidTarget, decodeBody[ErrorResponse](t, resp).Code)
	assert.Empty(t, env.store.directSends)

	resp = doJSON(t, env, http.MethodPost, "/api/send", `{"user":{"id":"u9","role":"others"},"text":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, env.store.directSends, 1)
	assert.Equal(t, "u9", env.store.directSends[0].ReceiverID)
	assert.Equal(t, "others", env.store.directSends[0].ReceiverRole)

	// once addressed, the conversation key alone is enough
	resp = doJSON(t, env, http.MethodPost, "/api/send", `{"conversation":"direct:u9","text":"again"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, env.store.directSends, 2)
}

func TestSendBlankRejected(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPost, "/api/send", `{"text":"   "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrCodeEmptyText, decodeBody[ErrorResponse](t, resp).Code)
	assert.Empty(t, env.store.broadcastSends)
}

func TestDraftSubmit(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPut, "/api/draft", `{"text":"shift starts at 6"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "shift starts at 6", env.session.Draft())

	resp = doJSON(t, env, http.MethodPost, "/api/send", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, env.session.Draft())

	require.Len(t, env.store.broadcastSends, 1)
	assert.Equal(t, core.RoleDriver, env.store.broadcastSends[0].Role)
	assert.Equal(t, "shift starts at 6", env.store.broadcastSends[0].Text)
}

func TestSyncActiveConversation(t *testing.T) {
	env := newTestEnv(t, false)
	env.store.mu.Lock()
	env.store.broadcast[core.RoleDriver] = []core.Record{{ID: "b3", SenderRole: "manager", Text: "third"}}
	env.store.mu.Unlock()

	resp := doJSON(t, env, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	hist := decodeBody[proto.EventHistory](t, resp)
	assert.Equal(t, "broadcast:driver", hist.Conversation)
	require.Len(t, hist.Messages, 1)
	assert.Equal(t, "manager", hist.Messages[0].Sender)
}

func TestBroadcastBoard(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodPost, "/api/broadcasts", `{"text":"road closed"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	state := decodeBody[BoardResponse](t, resp)
	assert.Equal(t, "sent", state.Status)
	require.Len(t, state.Announcements, 1)
	assert.Equal(t, "road closed", state.Announcements[0].Text)

	resp = doJSON(t, env, http.MethodGet, "/api/broadcasts?refresh=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[BoardResponse](t, resp).Announcements, 1)

	resp = doJSON(t, env, http.MethodPost, "/api/broadcasts", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendsLedgerDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	resp := doJSON(t, env, http.MethodGet, "/api/sends", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSendsEmptyLedger(t *testing.T) {
	env := newTestEnv(t, true)

	resp := doJSON(t, env, http.MethodGet, "/api/sends?delivery=failed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []SendRecordResponse{}, decodeBody[[]SendRecordResponse](t, resp))
}

func TestSendsRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t, true)

	for _, q := range []string{"?limit=0", "?limit=abc", "?delivery=lost"} {
		resp := doJSON(t, env, http.MethodGet, "/api/sends"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}
