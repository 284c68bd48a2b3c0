package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestListEventsQuery(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []Event{{ID: "e1", Summary: "Standup"}},
		})
	}))
	defer srv.Close()

	c := NewClient("primary", WithBaseURL(srv.URL))
	events, err := c.ListEvents(context.Background(), "tok", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Errorf("events = %+v", events)
	}
	if gotPath != "/calendars/primary/events" {
		t.Errorf("path = %q", gotPath)
	}
	// Recurring events expanded and ordered, timeMin defaulted.
	for _, want := range []string{"singleEvents=true", "orderBy=startTime", "timeMin=", "maxResults=10"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFreeBusyParsesPeriods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/freeBusy" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"calendars":{"primary":{"busy":[
			{"start":"2026-01-05T09:00:00Z","end":"2026-01-05T10:00:00Z"}
		]}}}`))
	}))
	defer srv.Close()

	c := NewClient("primary", WithBaseURL(srv.URL))
	busy, err := c.FreeBusy(context.Background(), "tok", monday, monday.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("FreeBusy: %v", err)
	}
	if len(busy) != 1 {
		t.Fatalf("busy = %+v", busy)
	}
	if !busy[0].Start.Equal(at(monday, 9, 0)) || !busy[0].End.Equal(at(monday, 10, 0)) {
		t.Errorf("period = %+v", busy[0])
	}
}

func TestIsTimeFree(t *testing.T) {
	busyResp := `{"calendars":{"primary":{"busy":[{"start":"2026-01-05T09:00:00Z","end":"2026-01-05T10:00:00Z"}]}}}`
	freeResp := `{"calendars":{"primary":{"busy":[]}}}`

	for _, tt := range []struct {
		name string
		resp string
		want bool
	}{
		{"busy window", busyResp, false},
		{"free window", freeResp, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.resp))
			}))
			defer srv.Close()

			c := NewClient("primary", WithBaseURL(srv.URL))
			free, err := c.IsTimeFree(context.Background(), "tok", monday, monday.Add(time.Hour))
			if err != nil {
				t.Fatalf("IsTimeFree: %v", err)
			}
			if free != tt.want {
				t.Errorf("free = %v, want %v", free, tt.want)
			}
		})
	}
}

func TestQuickAdd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/events/quickAdd") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "Lunch tomorrow at noon" {
			t.Errorf("text = %q", got)
		}
		json.NewEncoder(w).Encode(Event{ID: "qa1", Summary: "Lunch"})
	}))
	defer srv.Close()

	c := NewClient("primary", WithBaseURL(srv.URL))
	ev, err := c.QuickAdd(context.Background(), "tok", "Lunch tomorrow at noon")
	if err != nil {
		t.Fatalf("QuickAdd: %v", err)
	}
	if ev.ID != "qa1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestUnauthorizedMapsToErrUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("primary", WithBaseURL(srv.URL))
	_, err := c.ListEvents(context.Background(), "dead-token", time.Now(), time.Time{}, 5)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient("primary", WithBaseURL(srv.URL))
	if err := c.DeleteEvent(context.Background(), "tok", "e1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q", gotMethod)
	}
}
