package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/auth"
	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/metrics"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// Config describes how to reach the message store.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Identity is carried in the bearer token. Tokens are only attached when
	// Tokens holds a secret; otherwise requests go out unauthenticated.
	Identity core.Identity
	Tokens   *auth.JWTConfig
}

// Client talks JSON over HTTP to the message store. It implements
// core.MessageAPI and core.BoardAPI.
type Client struct {
	baseURL  string
	http     *stdhttp.Client
	timeout  time.Duration
	identity core.Identity
	tokens   *auth.JWTConfig
	metrics  *metrics.Metrics
	log      *zerolog.Logger
}

var (
	_ core.MessageAPI = (*Client)(nil)
	_ core.BoardAPI   = (*Client)(nil)
)

// New creates a client. httpClient may be nil.
func New(cfg Config, httpClient *stdhttp.Client, m *metrics.Metrics, logger *zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &stdhttp.Client{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	clientLog := logger.With().Str("component", "remote").Logger()
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		timeout:  cfg.Timeout,
		identity: cfg.Identity,
		tokens:   cfg.Tokens,
		metrics:  m,
		log:      &clientLog,
	}
}

// SendDirect posts a message to one user.
// POST /send
func (c *Client) SendDirect(ctx context.Context, msg core.DirectSend) error {
	body := sendRequest{
		SenderID:     msg.SenderID,
		SenderRole:   msg.SenderRole,
		ReceiverRole: msg.ReceiverRole,
		ReceiverID:   msg.ReceiverID,
		Type:         msg.Type,
		Text:         msg.Text,
	}
	return c.do(ctx, "send_direct", stdhttp.MethodPost, "/send", nil, body, nil)
}

// SendBroadcast posts a message to a role group.
// POST /broadcast
func (c *Client) SendBroadcast(ctx context.Context, msg core.BroadcastSend) error {
	body := broadcastRequest{
		Role: string(msg.Role),
		Type: msg.Type,
		Text: msg.Text,
	}
	return c.do(ctx, "send_broadcast", stdhttp.MethodPost, "/broadcast", nil, body, nil)
}

// Conversation fetches the direct thread between two users.
// GET /con?userA=&userB=
func (c *Client) Conversation(ctx context.Context, userA, userB string) ([]core.Record, error) {
	q := url.Values{}
	q.Set("userA", userA)
	q.Set("userB", userB)

	var raw json.RawMessage
	if err := c.do(ctx, "conversation", stdhttp.MethodGet, "/con", q, nil, &raw); err != nil {
		return nil, err
	}
	msgs, err := decodeList[message](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode conversation: %w", core.ErrRemote, err)
	}
	return toRecords(msgs), nil
}

// BroadcastHistory fetches the broadcasts sent to role, newest first.
// GET /broad?role=
func (c *Client) BroadcastHistory(ctx context.Context, role core.Role) ([]core.Record, error) {
	q := url.Values{}
	q.Set("role", string(role))

	var raw json.RawMessage
	if err := c.do(ctx, "broadcast_history", stdhttp.MethodGet, "/broad", q, nil, &raw); err != nil {
		return nil, err
	}
	msgs, err := decodeList[message](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode broadcast history: %w", core.ErrRemote, err)
	}
	return toRecords(msgs), nil
}

// SearchUsers finds users of role by name.
// GET /search?role=&name=
func (c *Client) SearchUsers(ctx context.Context, role core.Role, term string) ([]core.UserRecord, error) {
	q := url.Values{}
	q.Set("role", string(role))
	q.Set("name", term)

	var resp searchResponse
	if err := c.do(ctx, "search", stdhttp.MethodGet, "/search", q, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Users == nil {
		return nil, fmt.Errorf("%w: decode search: response object has no users field", core.ErrRemote)
	}
	list, err := decodeList[user](resp.Users)
	if err != nil {
		return nil, fmt.Errorf("%w: decode search: %w", core.ErrRemote, err)
	}

	users := make([]core.UserRecord, 0, len(list))
	for _, u := range list {
		users = append(users, u.record())
	}
	return users, nil
}

// Announcements fetches the general broadcast history.
// GET /?userId=&role=&includeBroadcast=&includePrivate=
func (c *Client) Announcements(ctx context.Context, q core.AnnouncementQuery) ([]core.Announcement, error) {
	params := url.Values{}
	params.Set("userId", q.UserID)
	params.Set("role", q.Role)
	params.Set("includeBroadcast", strconv.FormatBool(q.IncludeBroadcast))
	params.Set("includePrivate", strconv.FormatBool(q.IncludePrivate))

	var raw json.RawMessage
	if err := c.do(ctx, "announcements", stdhttp.MethodGet, "", params, nil, &raw); err != nil {
		return nil, err
	}
	msgs, err := decodeList[message](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode announcements: %w", core.ErrRemote, err)
	}

	items := make([]core.Announcement, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, m.announcement())
	}
	return items, nil
}

// Announce posts a broadcast to everyone on behalf of sender.
// POST /send with isBroadcast set
func (c *Client) Announce(ctx context.Context, sender core.Identity, text string) error {
	body := announceRequest{
		SenderID:    sender.ID,
		SenderRole:  sender.Role,
		IsBroadcast: true,
		Type:        core.MessageTypeText,
		Text:        text,
	}
	return c.do(ctx, "announce", stdhttp.MethodPost, "/send", nil, body, nil)
}

// do performs one request. Every failure is wrapped with core.ErrRemote.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(op, time.Since(start), err)
		if err != nil {
			c.log.Debug().Err(err).Str("op", op).Str("method", method).Str("path", path).Msg("request failed")
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode %s body: %w", core.ErrRemote, op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := stdhttp.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: build %s request: %w", core.ErrRemote, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens.Enabled() {
		token, err := auth.GenerateToken(c.tokens, c.identity.ID, c.identity.Role)
		if err != nil {
			return fmt.Errorf("%w: sign request: %w", core.ErrRemote, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", core.ErrRemote, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", core.ErrRemote, op, err)
	}
	return nil
}

var errMissingData = errors.New("response object has no data field")

// decodeList accepts a bare JSON array or one wrapped as {"data": [...]}.
// An object without a data field is an error, not an empty list.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		if envelope.Data == nil {
			return nil, errMissingData
		}
		return decodeList[T](envelope.Data)
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func toRecords(msgs []message) []core.Record {
	records := make([]core.Record, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, m.record())
	}
	return records
}
