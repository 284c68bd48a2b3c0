// Package agent – prompts.go builds the per-domain system instructions and
// declares which tool subset each domain sees.
package agent

import (
	"fmt"
	"time"
)

// Tool names shared between registration and subset selection.
const (
	ToolAuthLink       = "get_google_auth_link"
	ToolSearchWeb      = "search_web"
	ToolRecentMessages = "get_recent_system_messages"
)

// organizerToolNames is the full Organizer subset for connected users.
var organizerToolNames = []string{
	"get_calendar_events",
	"create_calendar_event",
	"update_calendar_event",
	"delete_calendar_event",
	"quick_add_calendar_event",
	"bulk_create_calendar_events",
	"check_time_free",
	"find_available_slots",
	"create_habit",
	"log_habit",
	"get_user_habits",
	"get_pending_habits",
	"delete_habit",
	"get_user_preferences",
	"update_user_preferences",
	ToolRecentMessages,
	ToolSearchWeb,
}

// notConnectedToolNames is the reduced subset when the Organizer domain
// needs a credential and none is valid: only the connection-link tool.
var notConnectedToolNames = []string{ToolAuthLink}

// listenerToolNames is the Listener subset.
var listenerToolNames = []string{ToolSearchWeb, ToolRecentMessages}

// toolNamesFor selects the active tool subset.
func toolNamesFor(domain Domain, connected bool) []string {
	switch {
	case domain == DomainOrganizer && !connected:
		return notConnectedToolNames
	case domain == DomainOrganizer:
		return organizerToolNames
	default:
		return listenerToolNames
	}
}

const personaPreamble = `Kamu adalah %s, asisten pribadi di WhatsApp. Gaya bicaramu santai, suportif, bahasa Indonesia sehari-hari (boleh campur English dikit), singkat dan to the point. Jangan pakai format markdown berat; ini chat WhatsApp.

Sekarang: %s (%s).`

const organizerInstructions = `
Kamu lagi jadi Organizer: bantu urusin jadwal, kalender, dan kebiasaan (habit) user.
- Pakai tools kalender untuk lihat, bikin, ubah, atau hapus acara. Jangan mengarang isi kalender.
- Kalau user minta cari waktu kosong, pakai find_available_slots dan tawarkan opsi paling awal dulu.
- Untuk habit: bikin, catat selesai, atau tampilkan daftar sesuai permintaan.
- Konfirmasi singkat setelah aksi berhasil, sebut detail penting (judul, waktu).`

const organizerNotConnectedInstructions = `
User BELUM menghubungkan Google Calendar, jadi kamu tidak bisa akses jadwal mereka.
Satu-satunya tool yang tersedia adalah get_google_auth_link. Kalau user butuh apa pun soal jadwal/kalender, panggil tool itu supaya mereka bisa connect dulu. Jangan janjikan data kalender yang tidak bisa kamu lihat.`

const listenerInstructions = `
Kamu lagi jadi Listener: temani user ngobrol, dengarkan keluh kesahnya, kasih respon hangat dan membumi. Jangan sok menggurui, jangan buru-buru kasih solusi kecuali diminta. Boleh pakai search_web kalau user menanyakan fakta atau berita.`

// buildSystemPrompt assembles the instruction context for a turn.
func buildSystemPrompt(assistantName string, domain Domain, connected bool, now time.Time, loc *time.Location) string {
	local := now.In(loc)
	head := fmt.Sprintf(personaPreamble, assistantName,
		local.Format("Monday, 2 January 2006 15:04"), loc.String())

	switch {
	case domain == DomainOrganizer && !connected:
		return head + organizerNotConnectedInstructions
	case domain == DomainOrganizer:
		return head + organizerInstructions
	default:
		return head + listenerInstructions
	}
}

// authLinkReply is the fixed-template reply for the connection-link
// short-circuit. The link is embedded verbatim; a second model pass could
// paraphrase or hallucinate it.
func authLinkReply(link string) string {
	return fmt.Sprintf("Klik link ini buat hubungin Google Calendar kamu ya 👇\n\n%s\n\nLink-nya cuma berlaku 1 jam, jadi jangan lama-lama 😉", link)
}

// errorReply is the fixed-tone apologetic reply for any turn failure.
// The user must always receive some reply, never a hard failure.
func errorReply(errMsg string) string {
	return fmt.Sprintf("Aduh bro, sorry banget sistem error: %s", errMsg)
}
