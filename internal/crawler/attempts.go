package crawler

import (
	"fmt"
	"time"

	"serialsync/internal/logger"
)

// Attempt kinds.
const (
	KindPage     = "page"
	KindDownload = "download"
)

// AttemptResult records the result of one network call.
type AttemptResult struct {
	Timestamp  time.Time
	Kind       string
	URL        string
	Error      string
	Duration   time.Duration
	Bytes      int64
	StatusCode int
	Success    bool
}

// AttemptLog keeps every network call of a run in call order.
type AttemptLog struct {
	results []AttemptResult
}

// NewAttemptLog creates an empty attempt log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

// Record records the result of a network call.
func (al *AttemptLog) Record(kind, url string, statusCode int, bytes int64, duration time.Duration, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	al.results = append(al.results, AttemptResult{
		Timestamp:  time.Now(),
		Kind:       kind,
		URL:        url,
		Error:      errMsg,
		Duration:   duration,
		Bytes:      bytes,
		StatusCode: statusCode,
		Success:    err == nil,
	})
}

// Results returns a copy of the recorded attempts.
func (al *AttemptLog) Results() []AttemptResult {
	out := make([]AttemptResult, len(al.results))
	copy(out, al.results)

	return out
}

// Count returns the number of attempts of the given kind.
func (al *AttemptLog) Count(kind string) int {
	n := 0

	for _, r := range al.results {
		if r.Kind == kind {
			n++
		}
	}

	return n
}

// Stats returns statistics about the recorded attempts.
func (al *AttemptLog) Stats() AttemptStats {
	var stats AttemptStats

	for _, r := range al.results {
		stats.TotalAttempts++

		if r.Kind == KindDownload {
			stats.Downloads++
		} else {
			stats.Pages++
		}

		if r.Success {
			stats.SuccessfulAttempts++
			stats.TotalBytes += r.Bytes
		} else {
			stats.FailedAttempts++
		}

		stats.TotalDuration += r.Duration
	}

	return stats
}

// AttemptStats contains statistics about network calls.
type AttemptStats struct {
	TotalDuration      time.Duration
	TotalBytes         int64
	TotalAttempts      int
	Pages              int
	Downloads          int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"Calls: %d total (%d pages, %d downloads), %d success, %d failed | %d bytes in %.2fs",
		s.TotalAttempts,
		s.Pages,
		s.Downloads,
		s.SuccessfulAttempts,
		s.FailedAttempts,
		s.TotalBytes,
		s.TotalDuration.Seconds(),
	)
}

// LogSummary logs failed calls and the overall stats.
func (al *AttemptLog) LogSummary(l *logger.Logger) {
	l.Info("📊 Network summary")

	for _, r := range al.results {
		if r.Success {
			continue
		}

		l.Warn("❌ failed call", "kind", r.Kind, "url", r.URL, "status", r.StatusCode, "error", r.Error)
	}

	l.Info(fmt.Sprintf("Overall: %s", al.Stats()))
}

// Reset clears the log.
func (al *AttemptLog) Reset() {
	al.results = nil
}
