// Package habits – micro.go is the fixed bank of micro-habit suggestions
// sent by the nudge job to users who track no habits yet.
package habits

import "math/rand"

// MicroHabit is a tiny one-off suggestion with its payoff.
type MicroHabit struct {
	Action string
	Impact string
}

// MicroHabits is the suggestion bank. Tone matches the assistant's casual
// Indonesian voice.
var MicroHabits = []MicroHabit{
	// Physical / health.
	{Action: "minum 1 gelas air (bukan kopi/boba!) 💧", Impact: "ginjal berterima kasih."},
	{Action: "stretching punggung/leher 'jompo' 🦴", Impact: "anti encok club."},
	{Action: "tarik napas panjang 4-7-8 🌬️", Impact: "nurunin anxiety instant."},
	{Action: "liat yang ijo-ijo/jauh dari layar 👀", Impact: "mata gak cepet minus."},
	{Action: "jalan ke teras/jendela cari angin 🍃", Impact: "touch grass bentar."},
	{Action: "cuci muka biar melek 💦", Impact: "seger lagi, gak kucel."},

	// Digital clutter.
	{Action: "hapus 5 screenshot gak penting di galeri 📱", Impact: "storage lega, pikiran lega."},
	{Action: "close 3 tab browser yang cuma 'disimpen' 🧠", Impact: "RAM otak lebih enteng."},
	{Action: "unfollow/mute 1 akun toxic/gak penting 🔕", Impact: "timeline lebih adem."},
	{Action: "leave 1 grup WA sepi/gak kenal 👋", Impact: "notif sampah berkurang."},
	{Action: "beresin desktop/folder download 🗂️", Impact: "laptop gak kayak kapal pecah."},
	{Action: "mute notifikasi HP 15 menit 🔇", Impact: "fokus naik tanpa gangguan."},

	// Mental / social.
	{Action: "taro HP di balik (face down) 5 menit 🙃", Impact: "dopamine detox tipis-tipis."},
	{Action: "reply 1 chat yang dari kemarin didiemin 💬", Impact: "utang sosial lunas."},
	{Action: "kirim stiker/meme ke bestie 🤣", Impact: "koneksi tetep jalan tanpa effort."},
	{Action: "dengerin 1 lagu yang bikin semangat 🎵", Impact: "mood booster instant."},
	{Action: "rapiin kasur/meja kerja dikit aja 🧹", Impact: "visual gak bikin stress."},
	{Action: "bilang 'thank you' ke diri sendiri 🙏", Impact: "apresiasi small win hari ini."},
	{Action: "cek saldo... eh gajadi deh, cek dompet aja 💸", Impact: "reality check (canda)."},
}

// RandomMicroHabit picks a suggestion from the bank.
func RandomMicroHabit() MicroHabit {
	return MicroHabits[rand.Intn(len(MicroHabits))]
}
