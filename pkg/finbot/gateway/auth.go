// Package gateway – auth.go serves the Google connection flow over HTTP:
// the short link the user taps in chat, and the OAuth callback Google
// redirects to afterwards.
package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jholhewres/finbot/pkg/finbot/oauth"
)

const connectedPage = `<!DOCTYPE html>
<html lang="id">
<head><meta charset="utf-8"><title>Terhubung</title>
<style>body{font-family:sans-serif;text-align:center;padding-top:4rem;background:#f5f5f5}
.card{display:inline-block;background:#fff;padding:2rem 3rem;border-radius:12px;box-shadow:0 2px 8px rgba(0,0,0,.1)}</style>
</head>
<body><div class="card">
<h1>✅ Google Calendar terhubung!</h1>
<p>Kamu bisa tutup halaman ini dan balik ke WhatsApp.</p>
</div></body>
</html>`

// handleShortLink redirects a tapped connection link to the long Google
// authorization URL.
func (s *Server) handleShortLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	longURL, err := s.handshakes.Resolve(id)
	switch {
	case errors.Is(err, oauth.ErrHandshakeNotFound):
		http.Error(w, "link tidak dikenal", http.StatusNotFound)
		return
	case errors.Is(err, oauth.ErrHandshakeExpired):
		http.Error(w, "link sudah kedaluwarsa, minta link baru di chat ya", http.StatusGone)
		return
	case err != nil:
		s.logger.Error("short link resolve failed", "id", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, longURL, http.StatusFound)
}

// handleGoogleCallback finishes the OAuth flow. The state parameter is the
// handshake id created with the link.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		http.Error(w, "missing state or code", http.StatusBadRequest)
		return
	}

	userID, err := s.handshakes.Complete(r.Context(), state, code)
	switch {
	case errors.Is(err, oauth.ErrHandshakeNotFound):
		http.Error(w, "link tidak dikenal atau sudah dipakai", http.StatusBadRequest)
		return
	case errors.Is(err, oauth.ErrHandshakeExpired):
		http.Error(w, "link sudah kedaluwarsa, minta link baru di chat ya", http.StatusGone)
		return
	case err != nil:
		s.logger.Error("oauth callback failed", "err", err)
		http.Error(w, "gagal menghubungkan akun", http.StatusInternalServerError)
		return
	}

	s.notifyConnected(userID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(connectedPage))
}

// notifyConnected sends the in-chat confirmation, best effort.
func (s *Server) notifyConnected(userID string) {
	user, err := s.store.UserByID(userID)
	if err != nil {
		s.logger.Warn("connected user lookup failed", "user_id", userID, "err", err)
		return
	}
	go func() {
		ctx, cancel := contextWithSendTimeout()
		defer cancel()
		msg := "Google Calendar kamu udah terhubung ✅ Sekarang aku bisa bantu atur jadwal. Coba tanya \"jadwal aku hari ini apa aja?\""
		if err := s.sender.SendText(ctx, user.WhatsAppID, msg); err != nil {
			s.logger.Warn("connected notification failed", "user_id", userID, "err", err)
		}
	}()
}
