// Package agent – router.go classifies an incoming message into a handler
// domain. A deterministic keyword test keeps the decision auditable and
// avoids spending a model call purely on classification.
package agent

import "strings"

// Domain is the capability branch a message is routed to.
type Domain string

const (
	// DomainOrganizer handles scheduling, habits and account connection.
	DomainOrganizer Domain = "organizer"

	// DomainListener handles everything else conversationally.
	DomainListener Domain = "listener"
)

// organizerKeywords is the fixed bilingual vocabulary of scheduling, habit
// and connection related terms. Matching is case-insensitive substring
// membership; any hit routes to the Organizer.
var organizerKeywords = []string{
	// Scheduling (Indonesian).
	"jadwal", "agenda", "rapat", "janji", "acara", "meeting",
	"besok", "lusa", "minggu depan", "kalender", "ketemu",
	"atur", "jadwalkan", "reschedule", "batalin", "batalkan",
	"kosong", "luang", "sibuk",
	// Scheduling (English).
	"calendar", "schedule", "event", "appointment", "availability",
	"available", "free time", "busy", "slot", "remind",
	// Habits.
	"habit", "kebiasaan", "rutinitas", "routine", "track", "streak",
	"olahraga", "minum air",
	// Connection.
	"connect", "hubungkan", "sambungkan", "google", "login", "akun",
	// Preferences.
	"preferensi", "preference", "jam kerja", "working hours",
}

// Route picks a domain for the message. Empty or non-textual input
// defaults to Listener rather than erroring.
func Route(text string) Domain {
	if strings.TrimSpace(text) == "" {
		return DomainListener
	}
	lower := strings.ToLower(text)
	for _, kw := range organizerKeywords {
		if strings.Contains(lower, kw) {
			return DomainOrganizer
		}
	}
	return DomainListener
}
