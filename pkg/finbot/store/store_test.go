package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, nil)
}

func TestEnsureUserIdempotent(t *testing.T) {
	s := newTestStore(t)

	u1, err := s.EnsureUser("628123456789")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	u2, err := s.EnsureUser("628123456789")
	if err != nil {
		t.Fatalf("EnsureUser second call: %v", err)
	}
	if u1.ID != u2.ID {
		t.Errorf("EnsureUser created two users: %s vs %s", u1.ID, u2.ID)
	}
}

func TestReserveDedup(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000001")

	if got := s.Reserve("msg-1", u.ID, "628000000001@c.us", "halo"); got != ReserveAccepted {
		t.Fatalf("first Reserve = %v, want accepted", got)
	}
	if got := s.Reserve("msg-1", u.ID, "628000000001@c.us", "halo"); got != ReserveDuplicate {
		t.Fatalf("second Reserve = %v, want duplicate", got)
	}

	// Exactly one audit record exists.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE id = 'msg-1'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("audit records = %d, want 1", n)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, true},
		{"unique index", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"not null is not a duplicate", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"check is not a duplicate", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, false},
		{"foreign key is not a duplicate", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, false},
		{"unrelated error", errors.New("disk I/O error"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSetResponseAndRecent(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000002")

	s.Reserve("msg-a", u.ID, "", "pagi")
	if err := s.SetResponse("msg-a", "Pagi juga!"); err != nil {
		t.Fatalf("SetResponse: %v", err)
	}

	// A row still in the processing state is excluded from history.
	s.Reserve("msg-b", u.ID, "", "cek jadwal")

	msgs, err := s.RecentMessages(u.ID, 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("RecentMessages = %d rows, want 1", len(msgs))
	}
	if msgs[0].Response != "Pagi juga!" {
		t.Errorf("Response = %q", msgs[0].Response)
	}
}

func TestCredentialUpsertKeepsRefreshToken(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000003")

	err := s.UpsertCredential(&Credential{
		UserID:       u.ID,
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Scope:        "calendar",
	})
	if err != nil {
		t.Fatalf("UpsertCredential: %v", err)
	}

	// Renewal without a refresh token must keep the stored one.
	err = s.UpsertCredential(&Credential{
		UserID:      u.ID,
		AccessToken: "at-2",
		ExpiresAt:   time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("UpsertCredential renewal: %v", err)
	}

	c, err := s.Credential(u.ID)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if c.AccessToken != "at-2" {
		t.Errorf("AccessToken = %q, want at-2", c.AccessToken)
	}
	if c.RefreshToken != "rt-1" {
		t.Errorf("RefreshToken = %q, want rt-1 (must survive empty renewal)", c.RefreshToken)
	}

	if _, err := s.Credential("nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing credential error = %v, want sql.ErrNoRows", err)
	}
}

func TestHandshakeSingleFlight(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000004")

	now := time.Now()
	first := &Handshake{ID: "hs-1", UserID: u.ID, LongURL: "https://accounts.google.com/a",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if err := s.CreateHandshake(first); err != nil {
		t.Fatalf("CreateHandshake: %v", err)
	}

	second := &Handshake{ID: "hs-2", UserID: u.ID, LongURL: "https://accounts.google.com/b",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if err := s.CreateHandshake(second); err != nil {
		t.Fatalf("CreateHandshake second: %v", err)
	}

	// The first handshake is invalidated.
	if _, err := s.HandshakeByID("hs-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("first handshake still live, err = %v", err)
	}
	if _, err := s.HandshakeByID("hs-2"); err != nil {
		t.Errorf("second handshake should be live: %v", err)
	}
}

func TestPurgeExpiredHandshakes(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000005")

	now := time.Now()
	s.CreateHandshake(&Handshake{ID: "hs-old", UserID: u.ID, LongURL: "x",
		ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-2 * time.Hour)})

	n, err := s.PurgeExpiredHandshakes(now)
	if err != nil {
		t.Fatalf("PurgeExpiredHandshakes: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
}

func TestPendingHabits(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000006")

	h1, err := s.CreateHabit(u.ID, "Minum air", "", "daily", "morning")
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}
	h2, _ := s.CreateHabit(u.ID, "Baca buku", "", "daily", "evening")

	midnight := time.Now().Add(-time.Hour)
	if _, err := s.LogHabit(h1.ID, "done"); err != nil {
		t.Fatalf("LogHabit: %v", err)
	}

	pending, err := s.PendingHabits(u.ID, midnight)
	if err != nil {
		t.Fatalf("PendingHabits: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != h2.ID {
		t.Fatalf("pending = %+v, want only %s", pending, h2.ID)
	}

	completed, err := s.CompletedHabits(u.ID, midnight)
	if err != nil {
		t.Fatalf("CompletedHabits: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != h1.ID {
		t.Fatalf("completed = %+v, want only %s", completed, h1.ID)
	}
}

func TestDeleteHabitCascades(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000007")

	h, _ := s.CreateHabit(u.ID, "Olahraga", "", "", "")
	s.LogHabit(h.ID, "")

	if err := s.DeleteHabit(h.ID); err != nil {
		t.Fatalf("DeleteHabit: %v", err)
	}
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM habit_logs WHERE habit_id = ?`, h.ID).Scan(&n)
	if n != 0 {
		t.Errorf("orphan logs = %d, want 0", n)
	}

	if err := s.DeleteHabit(h.ID); err == nil {
		t.Error("deleting a missing habit should error")
	}
}

func TestPreferencesLazyDefaults(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000008")

	p, err := s.GetPreferences(u.ID)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if p.WorkStartHour != 9 || p.WorkEndHour != 17 || p.BufferMinutes != 15 || p.Assertiveness != "medium" {
		t.Errorf("defaults = %+v", p)
	}

	intPtr := func(n int) *int { return &n }

	updated, err := s.UpdatePreferences(u.ID, &PreferencesUpdate{WorkStartHour: intPtr(8), Assertiveness: "high"})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if updated.WorkStartHour != 8 || updated.WorkEndHour != 17 || updated.Assertiveness != "high" {
		t.Errorf("partial update = %+v", updated)
	}

	// An explicit 0 is a real value (midnight), not "keep current".
	updated, err = s.UpdatePreferences(u.ID, &PreferencesUpdate{WorkStartHour: intPtr(0)})
	if err != nil {
		t.Fatalf("UpdatePreferences to midnight: %v", err)
	}
	if updated.WorkStartHour != 0 || updated.WorkEndHour != 17 {
		t.Errorf("midnight update = %+v", updated)
	}
	reloaded, err := s.GetPreferences(u.ID)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if reloaded.WorkStartHour != 0 {
		t.Errorf("persisted WorkStartHour = %d, want 0", reloaded.WorkStartHour)
	}

	if _, err := s.UpdatePreferences(u.ID, &PreferencesUpdate{WorkStartHour: intPtr(18), WorkEndHour: intPtr(9)}); err == nil {
		t.Error("inverted working window should error")
	}
	if _, err := s.UpdatePreferences(u.ID, &PreferencesUpdate{BufferMinutes: intPtr(-5)}); err == nil {
		t.Error("negative buffer should error")
	}
}

func TestJobMessages(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.EnsureUser("628000000009")

	if err := s.RecordJobMessage("morning_briefing", u.ID, "628000000009@c.us", "Agenda hari ini kosong."); err != nil {
		t.Fatalf("RecordJobMessage: %v", err)
	}

	msgs, err := s.RecentJobMessages(u.ID, 5)
	if err != nil {
		t.Fatalf("RecentJobMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("job messages = %d, want 1", len(msgs))
	}
	if msgs[0].Response != "Agenda hari ini kosong." {
		t.Errorf("Response = %q", msgs[0].Response)
	}
}
