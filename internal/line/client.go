// Package line is a minimal LINE Messaging API client covering what the
// bot needs: replying to webhook events and pushing standalone texts.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.line.me"

// The reply API accepts at most five message objects per call.
const maxMessagesPerReply = 5

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

// Client calls the LINE Messaging API with a channel access token.
type Client struct {
	token    string
	endpoint string
	client   *http.Client
}

type Option func(*Client)

// WithEndpoint overrides the API base URL, for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func NewClient(channelAccessToken string, opts ...Option) *Client {
	c := &Client{
		token:    channelAccessToken,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Reply answers one webhook event. Texts beyond the API's per-call limit
// are truncated; the reply token is single-use so there is no second call.
func (c *Client) Reply(ctx context.Context, replyToken string, texts []string) error {
	if len(texts) > maxMessagesPerReply {
		slog.WarnContext(ctx, "reply truncated", "messages", len(texts), "limit", maxMessagesPerReply)
		texts = texts[:maxMessagesPerReply]
	}
	req := replyRequest{ReplyToken: replyToken, Messages: toTextMessages(texts)}
	return c.post(ctx, "/v2/bot/message/reply", req)
}

// Push sends texts to a user outside a reply window.
func (c *Client) Push(ctx context.Context, to string, texts []string) error {
	if len(texts) > maxMessagesPerReply {
		texts = texts[:maxMessagesPerReply]
	}
	req := pushRequest{To: to, Messages: toTextMessages(texts)}
	return c.post(ctx, "/v2/bot/message/push", req)
}

func toTextMessages(texts []string) []textMessage {
	out := make([]textMessage, len(texts))
	for i, t := range texts {
		out[i] = textMessage{Type: "text", Text: t}
	}
	return out
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("line API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
