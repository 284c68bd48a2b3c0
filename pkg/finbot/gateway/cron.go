// Package gateway – cron.go exposes the periodic jobs to an external cron
// (system crontab, Cloud Scheduler, cron-job.org). The caller picks the
// hour implicitly: without an explicit hour parameter the current UTC hour
// decides which job runs.
package gateway

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"
)

// cronRunTimeout bounds one external-cron job run across all users.
const cronRunTimeout = 5 * time.Minute

func contextWithSendTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func (s *Server) handleCronRun(w http.ResponseWriter, r *http.Request) {
	if !s.cronAuthorized(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	hour := time.Now().UTC().Hour()
	if raw := r.URL.Query().Get("hour"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 0 || h > 23 {
			http.Error(w, "invalid hour", http.StatusBadRequest)
			return
		}
		hour = h
	}

	// Run detached: job fan-out can outlive the request deadline.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cronRunTimeout)
		defer cancel()
		if err := s.jobs.RunByHour(ctx, hour); err != nil {
			s.logger.Error("cron job run failed", "utc_hour", hour, "err", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"accepted"}`))
}

// cronAuthorized checks the shared-secret header. An unset secret
// disables the endpoints entirely rather than leaving them open.
func (s *Server) cronAuthorized(r *http.Request) bool {
	if s.cronSecret == "" {
		return false
	}
	got := r.Header.Get("X-Cron-Secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cronSecret)) == 1
}
