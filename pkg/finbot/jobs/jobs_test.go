package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/calendar"
	"github.com/jholhewres/finbot/pkg/finbot/habits"
	"github.com/jholhewres/finbot/pkg/finbot/store"
)

type fakeSender struct {
	sent []struct{ chatID, text string }
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, chatID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, struct{ chatID, text string }{chatID, text})
	return nil
}

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) AccessToken(ctx context.Context, userID string) (string, error) {
	return f.token, f.err
}

type fakeCalendar struct {
	events []calendar.Event
	free   bool
	err    error
}

func (f *fakeCalendar) ListEvents(ctx context.Context, token string, timeMin, timeMax time.Time, maxResults int) ([]calendar.Event, error) {
	return f.events, f.err
}

func (f *fakeCalendar) IsTimeFree(ctx context.Context, token string, start, end time.Time) (bool, error) {
	return f.free, f.err
}

func newTestRunner(t *testing.T, cal *fakeCalendar, tokens *fakeTokens, sender *fakeSender) (*Runner, *store.Store) {
	t.Helper()
	db, err := store.OpenDatabase(filepath.Join(t.TempDir(), "jobs-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := store.New(db, nil)

	hb := habits.NewService(st, time.UTC, nil)
	r := NewRunner(st, hb, cal, tokens, sender, time.UTC, nil)
	return r, st
}

// connect stores a credential so the user counts as calendar-connected.
func connect(t *testing.T, st *store.Store, u *store.User) {
	t.Helper()
	err := st.UpsertCredential(&store.Credential{
		UserID:       u.ID,
		AccessToken:  "tok",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("UpsertCredential: %v", err)
	}
}

func timedEvent(summary string, start, end time.Time) calendar.Event {
	return calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
}

func TestRunByHourDispatch(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		hour     int
		wantSent bool
	}{
		{0, true},   // morning briefing
		{1, true},   // nudge window start
		{12, true},  // nudge window end
		{13, true},  // evening summary
		{14, false}, // outside all windows
		{23, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("hour_%d", tt.hour), func(t *testing.T) {
			sender := &fakeSender{}
			r, st := newTestRunner(t,
				&fakeCalendar{free: true},
				&fakeTokens{token: "tok"},
				sender)
			r.now = func() time.Time { return base }

			u, _ := st.EnsureUser("628100")
			connect(t, st, u)
			// A tracked pending habit so the nudge has something to say.
			if _, err := st.CreateHabit(u.ID, "olahraga", "", "daily", ""); err != nil {
				t.Fatal(err)
			}

			if err := r.RunByHour(context.Background(), tt.hour); err != nil {
				t.Fatalf("RunByHour(%d): %v", tt.hour, err)
			}
			if got := len(sender.sent) > 0; got != tt.wantSent {
				t.Errorf("hour %d sent = %v, want %v", tt.hour, got, tt.wantSent)
			}
		})
	}
}

func TestMorningBriefing(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
	}

	t.Run("lists events, collapses overflow, warns on conflicts", func(t *testing.T) {
		events := []calendar.Event{
			timedEvent("Standup", at(9, 0), at(9, 15)),
			timedEvent("Design review", at(9, 0), at(10, 0)), // conflicts with standup
			timedEvent("1:1", at(10, 0), at(10, 30)),
			timedEvent("Lunch", at(12, 0), at(13, 0)),
			timedEvent("Demo", at(14, 0), at(15, 0)),
			timedEvent("Retro", at(15, 0), at(16, 0)),
			timedEvent("Planning", at(16, 0), at(17, 0)),
		}
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{events: events}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return day }

		u, _ := st.EnsureUser("628200")
		connect(t, st, u)
		st.CreateHabit(u.ID, "baca", "", "daily", "")

		if err := r.MorningBriefing(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d messages, want 1", len(sender.sent))
		}

		text := sender.sent[0].text
		if !strings.Contains(text, "Standup") || !strings.Contains(text, "Demo") {
			t.Errorf("briefing missing events:\n%s", text)
		}
		if strings.Contains(text, "Retro") {
			t.Errorf("briefing should collapse events past the first %d:\n%s", briefingMaxEvents, text)
		}
		if !strings.Contains(text, "dan 2 lainnya") {
			t.Errorf("briefing missing overflow count:\n%s", text)
		}
		if !strings.Contains(text, "1 jadwal yang tabrakan") {
			t.Errorf("briefing missing conflict warning:\n%s", text)
		}
		if !strings.Contains(text, "nunggu hari ini: 1") {
			t.Errorf("briefing missing pending habit count:\n%s", text)
		}

		// Sent message is recorded under the job sentinel.
		recorded, err := st.RecentJobMessages(u.ID, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(recorded) != 1 || recorded[0].Body != store.JobSentinelPrefix+JobMorningBriefing {
			t.Errorf("job message not recorded: %+v", recorded)
		}
	})

	t.Run("empty calendar gets the empty-day line", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return day }
		u, _ := st.EnsureUser("628201")
		connect(t, st, u)

		if err := r.MorningBriefing(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "kosong") {
			t.Errorf("sent = %+v", sender.sent)
		}
	})

	t.Run("users without a connected calendar are not messaged", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return day }

		connectedUser, _ := st.EnsureUser("628202")
		connect(t, st, connectedUser)
		st.EnsureUser("628203")

		if err := r.MorningBriefing(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d, want only the connected user", len(sender.sent))
		}
		if sender.sent[0].chatID != connectedUser.WhatsAppID {
			t.Errorf("briefing went to %q, want %q", sender.sent[0].chatID, connectedUser.WhatsAppID)
		}
	})
}

func TestHourlyNudge(t *testing.T) {
	now := time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC)

	t.Run("busy user is skipped", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{free: false}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return now }
		u, _ := st.EnsureUser("628300")
		st.CreateHabit(u.ID, "olahraga", "", "daily", "")

		if err := r.HourlyNudge(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("busy user was nudged: %+v", sender.sent)
		}
	})

	t.Run("no calendar means assumed free", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{free: false}, &fakeTokens{err: fmt.Errorf("not connected")}, sender)
		r.now = func() time.Time { return now }
		u, _ := st.EnsureUser("628301")
		st.CreateHabit(u.ID, "olahraga", "", "daily", "")

		if err := r.HourlyNudge(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d, want 1", len(sender.sent))
		}
		if !strings.Contains(sender.sent[0].text, "olahraga") {
			t.Errorf("nudge = %q, want the pending habit named", sender.sent[0].text)
		}
	})

	t.Run("all habits done means skip", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{free: true}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return now }
		u, _ := st.EnsureUser("628302")
		h, _ := st.CreateHabit(u.ID, "olahraga", "", "daily", "")
		st.LogHabit(h.ID, "")

		if err := r.HourlyNudge(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("completed user was nudged: %+v", sender.sent)
		}
	})

	t.Run("zero tracked habits gets a micro-habit suggestion", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{free: true}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return now }
		st.EnsureUser("628303")

		if err := r.HourlyNudge(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d, want 1", len(sender.sent))
		}
		if !strings.Contains(sender.sent[0].text, "Coba ini:") {
			t.Errorf("nudge = %q, want a micro-habit suggestion", sender.sent[0].text)
		}
	})
}

func TestEveningSummary(t *testing.T) {
	now := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)

	t.Run("completed habits are listed", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return now }
		u, _ := st.EnsureUser("628400")
		connect(t, st, u)
		h1, _ := st.CreateHabit(u.ID, "olahraga", "", "daily", "")
		h2, _ := st.CreateHabit(u.ID, "baca", "", "daily", "")
		st.LogHabit(h1.ID, "")
		st.LogHabit(h2.ID, "")

		if err := r.EveningSummary(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d, want 1", len(sender.sent))
		}
		text := sender.sent[0].text
		if !strings.Contains(text, "olahraga") || !strings.Contains(text, "baca") {
			t.Errorf("summary = %q", text)
		}
	})

	t.Run("empty day gets a neutral closing", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return now }
		u, _ := st.EnsureUser("628401")
		connect(t, st, u)

		if err := r.EveningSummary(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d, want 1", len(sender.sent))
		}
		if !strings.Contains(sender.sent[0].text, "gapapa") {
			t.Errorf("summary = %q, want a neutral, guilt-free closing", sender.sent[0].text)
		}
	})

	t.Run("users without a connected calendar are not messaged", func(t *testing.T) {
		sender := &fakeSender{}
		r, st := newTestRunner(t, &fakeCalendar{}, &fakeTokens{token: "tok"}, sender)
		r.now = func() time.Time { return now }
		st.EnsureUser("628402")

		if err := r.EveningSummary(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("unconnected user got a summary: %+v", sender.sent)
		}
	})
}

func TestSendFailureDoesNotBlockOtherUsers(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("gateway down")}
	r, st := newTestRunner(t, &fakeCalendar{}, &fakeTokens{token: "tok"}, sender)
	r.now = func() time.Time { return time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC) }
	u1, _ := st.EnsureUser("628500")
	connect(t, st, u1)
	u2, _ := st.EnsureUser("628501")
	connect(t, st, u2)

	err := r.MorningBriefing(context.Background())
	if err == nil {
		t.Fatal("expected the send failure to surface")
	}
	if !strings.Contains(err.Error(), "gateway down") {
		t.Errorf("err = %v", err)
	}
}
