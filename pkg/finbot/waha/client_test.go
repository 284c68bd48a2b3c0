package waha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"628123456789", "628123456789@c.us"},
		{"628123456789@c.us", "628123456789@c.us"},
		{"123456-789@g.us", "123456-789@g.us"},
	}
	for _, tt := range tests {
		if got := NormalizeChatID(tt.in); got != tt.want {
			t.Errorf("NormalizeChatID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSendText(t *testing.T) {
	var got sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sendText" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("X-Api-Key = %q", r.Header.Get("X-Api-Key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "main", WithRateLimit(100, 10))
	if err := c.SendText(context.Background(), "628123456789", "halo"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if got.Session != "main" {
		t.Errorf("session = %q", got.Session)
	}
	if got.ChatID != "628123456789@c.us" {
		t.Errorf("chatId = %q", got.ChatID)
	}
	if got.Text != "halo" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestSendTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session stopped"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", WithRateLimit(100, 10))
	if err := c.SendText(context.Background(), "628123456789", "halo"); err == nil {
		t.Fatal("expected error for 422 response")
	}
}
