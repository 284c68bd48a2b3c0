// Package gateway – webhook.go receives WAHA message events. Filtering
// happens before the dedup gate so status broadcasts and group chatter
// never occupy audit rows; the reply is computed in the background so the
// webhook acknowledges fast.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// wahaWebhook is the WAHA event envelope.
type wahaWebhook struct {
	Event   string `json:"event"`
	Session string `json:"session"`
	Payload struct {
		ID     string `json:"id"`
		From   string `json:"from"`
		FromMe bool   `json:"fromMe"`
		Body   string `json:"body"`
	} `json:"payload"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var hook wahaWebhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		s.logger.Warn("malformed webhook payload", "err", err)
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	if reason := filterReason(&hook); reason != "" {
		s.logger.Debug("webhook ignored", "reason", reason, "from", hook.Payload.From)
		writeOK(w)
		return
	}

	user, err := s.store.EnsureUser(strings.TrimSuffix(hook.Payload.From, "@c.us"))
	if err != nil {
		s.logger.Error("ensure user failed", "from", hook.Payload.From, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	if s.store.Reserve(hook.Payload.ID, user.ID, hook.Payload.From, hook.Payload.Body) == store.ReserveDuplicate {
		writeOK(w)
		return
	}

	// Acknowledge immediately; WAHA retries on slow responses and the
	// model round-trip can take tens of seconds.
	go s.processMessage(user.ID, hook.Payload.From, hook.Payload.ID, hook.Payload.Body)
	writeOK(w)
}

func (s *Server) processMessage(userID, chatID, messageID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	reply := s.handler.HandleMessage(ctx, userID, chatID, messageID, text)
	if reply == "" {
		return
	}
	if err := s.sender.SendText(ctx, chatID, reply); err != nil {
		s.logger.Error("reply delivery failed", "chat_id", chatID, "err", err)
	}
}

// filterReason classifies events the assistant must never respond to.
// Returns "" for a processable direct message.
func filterReason(hook *wahaWebhook) string {
	switch {
	case hook.Event != "message":
		return "not_a_message"
	case hook.Payload.FromMe:
		return "own_message"
	case strings.HasPrefix(hook.Payload.From, "status@"):
		return "status_broadcast"
	case strings.HasSuffix(hook.Payload.From, "@broadcast"):
		return "broadcast_list"
	case strings.HasSuffix(hook.Payload.From, "@g.us"):
		return "group_chat"
	case strings.HasSuffix(hook.Payload.From, "@lid"):
		return "linked_device"
	case strings.TrimSpace(hook.Payload.Body) == "":
		return "empty_body"
	case hook.Payload.ID == "":
		return "missing_id"
	}
	return ""
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
