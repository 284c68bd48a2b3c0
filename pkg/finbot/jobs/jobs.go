// Package jobs implements the periodic outbound messages: the morning
// briefing, the hourly habit nudge, and the evening summary. The briefing
// and the summary go only to users with a connected calendar; the nudge
// walks everyone. Each run builds a personal message per user, sends it
// through the WhatsApp gateway, and records it in the audit log so
// conversations can refer back to what was already sent.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/calendar"
	"github.com/jholhewres/finbot/pkg/finbot/habits"
	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// Job names, used as audit sentinel suffixes and metric labels.
const (
	JobMorningBriefing = "morning_briefing"
	JobHourlyNudge     = "hourly_nudge"
	JobEveningSummary  = "evening_summary"
)

// briefingMaxEvents caps how many events the briefing lists before
// collapsing the rest into a count.
const briefingMaxEvents = 5

// Sender delivers outbound messages. *waha.Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// TokenSource yields access tokens. *oauth.TokenManager satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// CalendarAPI is the calendar surface the jobs need. *calendar.Client
// satisfies it.
type CalendarAPI interface {
	ListEvents(ctx context.Context, token string, timeMin, timeMax time.Time, maxResults int) ([]calendar.Event, error)
	IsTimeFree(ctx context.Context, token string, start, end time.Time) (bool, error)
}

// Runner executes the periodic jobs.
type Runner struct {
	store    *store.Store
	habits   *habits.Service
	calendar CalendarAPI
	tokens   TokenSource
	sender   Sender
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner wires a job runner.
func NewRunner(st *store.Store, hb *habits.Service, cal CalendarAPI, tokens TokenSource, sender Sender, loc *time.Location, logger *slog.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:    st,
		habits:   hb,
		calendar: cal,
		tokens:   tokens,
		sender:   sender,
		loc:      loc,
		logger:   logger.With("component", "jobs"),
		now:      time.Now,
	}
}

// RunByHour dispatches the job matching the given UTC hour. Hour 0 is the
// morning briefing, 13 the evening summary, and 1 through 12 the hourly
// nudge; other hours are a no-op. This backs the external-cron endpoint
// for deployments without the internal scheduler.
func (r *Runner) RunByHour(ctx context.Context, utcHour int) error {
	switch {
	case utcHour == 0:
		return r.MorningBriefing(ctx)
	case utcHour == 13:
		return r.EveningSummary(ctx)
	case utcHour >= 1 && utcHour <= 12:
		return r.HourlyNudge(ctx)
	default:
		r.logger.Debug("no job for hour", "utc_hour", utcHour)
		return nil
	}
}

// MorningBriefing sends each connected user their agenda for the day plus
// pending habit count. Users who never linked a calendar are not messaged.
func (r *Runner) MorningBriefing(ctx context.Context) error {
	return r.forEachUser(ctx, JobMorningBriefing, r.store.ConnectedUsers, func(ctx context.Context, u *store.User) (string, string, error) {
		now := r.now().In(r.loc)
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var events []calendar.Event
		if token, err := r.tokens.AccessToken(ctx, u.ID); err == nil {
			events, err = r.calendar.ListEvents(ctx, token, dayStart, dayEnd, 50)
			if err != nil {
				r.logger.Warn("briefing calendar fetch failed", "user_id", u.ID, "err", err)
			}
		}

		pending, err := r.habits.Pending(u.ID, now)
		if err != nil {
			return "", "", fmt.Errorf("pending habits: %w", err)
		}

		return r.briefingText(events, len(pending)), "", nil
	})
}

// HourlyNudge reminds each user of one pending habit, or suggests a
// micro-habit when they track none. Unlike the briefing this covers every
// known user. Users currently in a meeting are skipped; users without a
// connected calendar are assumed free.
func (r *Runner) HourlyNudge(ctx context.Context) error {
	return r.forEachUser(ctx, JobHourlyNudge, r.store.ListUsers, func(ctx context.Context, u *store.User) (string, string, error) {
		now := r.now()

		if token, err := r.tokens.AccessToken(ctx, u.ID); err == nil {
			free, err := r.calendar.IsTimeFree(ctx, token, now, now.Add(30*time.Minute))
			if err != nil {
				r.logger.Warn("nudge busy check failed, assuming free", "user_id", u.ID, "err", err)
			} else if !free {
				return "", "busy", nil
			}
		}

		total, err := r.habits.Count(u.ID)
		if err != nil {
			return "", "", fmt.Errorf("count habits: %w", err)
		}
		if total == 0 {
			return microHabitText(habits.RandomMicroHabit()), "", nil
		}

		pending, err := r.habits.Pending(u.ID, now)
		if err != nil {
			return "", "", fmt.Errorf("pending habits: %w", err)
		}
		if len(pending) == 0 {
			return "", "no_pending", nil
		}

		pick := pending[rand.Intn(len(pending))]
		return nudgeText(pick), "", nil
	})
}

// EveningSummary recaps what each connected user completed today plus how
// many events the day held. A day with neither gets a neutral closing,
// never a guilt trip.
func (r *Runner) EveningSummary(ctx context.Context) error {
	return r.forEachUser(ctx, JobEveningSummary, r.store.ConnectedUsers, func(ctx context.Context, u *store.User) (string, string, error) {
		now := r.now().In(r.loc)
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)

		eventCount := 0
		if token, err := r.tokens.AccessToken(ctx, u.ID); err == nil {
			events, err := r.calendar.ListEvents(ctx, token, dayStart, dayStart.AddDate(0, 0, 1), 50)
			if err != nil {
				r.logger.Warn("summary calendar fetch failed", "user_id", u.ID, "err", err)
			}
			eventCount = len(events)
		}

		completed, err := r.habits.CompletedToday(u.ID, r.now())
		if err != nil {
			return "", "", fmt.Errorf("completed habits: %w", err)
		}
		return eveningText(completed, eventCount), "", nil
	})
}

// forEachUser runs the per-user build function over the listed audience,
// sends non-empty results, and records each sent message under the job's
// sentinel. One user's failure never blocks the rest.
func (r *Runner) forEachUser(ctx context.Context, job string, list func() ([]*store.User, error), build func(ctx context.Context, u *store.User) (text, skipReason string, err error)) error {
	users, err := list()
	if err != nil {
		return fmt.Errorf("%s: list users: %w", job, err)
	}

	var firstErr error
	for _, u := range users {
		text, skipReason, err := build(ctx, u)
		if err != nil {
			r.logger.Error("job build failed", "job", job, "user_id", u.ID, "err", err)
			jobFailures.WithLabelValues(job).Inc()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if skipReason != "" {
			r.logger.Debug("job skipped user", "job", job, "user_id", u.ID, "reason", skipReason)
			jobSkips.WithLabelValues(job, skipReason).Inc()
			continue
		}

		chatID := u.WhatsAppID
		if err := r.sender.SendText(ctx, chatID, text); err != nil {
			r.logger.Error("job send failed", "job", job, "user_id", u.ID, "err", err)
			jobFailures.WithLabelValues(job).Inc()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		jobSends.WithLabelValues(job).Inc()

		if err := r.store.RecordJobMessage(job, u.ID, chatID, text); err != nil {
			r.logger.Warn("recording job message failed", "job", job, "user_id", u.ID, "err", err)
		}
	}
	return firstErr
}

// briefingText renders the morning message: up to five events, a conflict
// warning, and the pending habit count.
func (r *Runner) briefingText(events []calendar.Event, pendingCount int) string {
	var b strings.Builder
	b.WriteString("Pagi! ☀️\n")

	if len(events) == 0 {
		b.WriteString("Kalender kamu hari ini kosong. Waktunya deep work atau me time 😌")
	} else {
		b.WriteString("Agenda hari ini:\n")
		for i, ev := range events {
			if i >= briefingMaxEvents {
				fmt.Fprintf(&b, "...dan %d lainnya\n", len(events)-briefingMaxEvents)
				break
			}
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, ev.Summary, ev.FormatTime(r.loc))
		}
		if n := calendar.ConflictCount(events, r.loc); n > 0 {
			fmt.Fprintf(&b, "⚠️ Ada %d jadwal yang tabrakan, cek lagi ya.\n", n)
		}
	}

	if pendingCount > 0 {
		fmt.Fprintf(&b, "\nHabit yang nunggu hari ini: %d. Semangat! 💪", pendingCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func nudgeText(h *store.Habit) string {
	return fmt.Sprintf("Reminder santai 🙌 %q belum kecatat hari ini. Gas sekarang mumpung lagi free?", h.Title)
}

func microHabitText(m habits.MicroHabit) string {
	return fmt.Sprintf("Lagi free bentar? Coba ini: %s\nKenapa: %s", m.Action, m.Impact)
}

func eveningText(completed []*store.Habit, eventCount int) string {
	if len(completed) == 0 && eventCount == 0 {
		return "Malem! Hari ini santai, nggak ada acara atau habit yang kecatat, dan itu gapapa. Istirahat yang enak ya 🙂"
	}

	var b strings.Builder
	b.WriteString("Malem! Recap hari ini:")
	if eventCount > 0 {
		fmt.Fprintf(&b, "\n📅 %d acara terlewati", eventCount)
	}
	if len(completed) > 0 {
		titles := make([]string, 0, len(completed))
		for _, h := range completed {
			titles = append(titles, h.Title)
		}
		fmt.Fprintf(&b, "\n✅ Habit kelar: %s", strings.Join(titles, ", "))
	} else {
		b.WriteString("\nHabit belum ada yang kecatat, besok gas lagi ya.")
	}
	b.WriteString("\nProud of you 👏")
	return b.String()
}
