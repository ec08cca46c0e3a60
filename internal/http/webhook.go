package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// Webhook bodies are small event batches; anything bigger is not LINE.
const maxWebhookBody = 1 << 20

type webhookRequest struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// handleWebhook verifies the platform signature over the raw body, then
// dispatches each text message event to the conversation engine. The
// endpoint always answers 200 once the signature checks out: reply
// failures are logged, never surfaced, so the platform does not redeliver
// events that were already applied to the ledger.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !validSignature(s.channelSecret, body, r.Header.Get("X-Line-Signature")) {
		slog.WarnContext(ctx, "Webhook signature rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		slog.WarnContext(ctx, "Webhook body unparsable", "error", err)
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	for _, ev := range req.Events {
		if ev.Type != "message" || ev.Message.Type != "text" || ev.Source.UserID == "" {
			continue
		}
		replies := s.handler.HandleMessage(ctx, ev.Source.UserID, ev.Message.Text)
		if len(replies) == 0 {
			continue
		}
		if err := s.replier.Reply(ctx, ev.ReplyToken, replies); err != nil {
			slog.ErrorContext(ctx, "Reply failed", "user", ev.Source.UserID, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// validSignature checks the X-Line-Signature header: base64 of the
// HMAC-SHA256 of the raw request body under the channel secret.
func validSignature(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
