package prometheus

import (
	"context"
	"time"

	"github.com/stokerio/stoker/pkg/httpd"
)

// ConnObserver returns an httpd observer that records request metrics.
func ConnObserver() httpd.Observer {
	m := GetMetrics()
	return func(connID string, status int, route string, elapsed time.Duration) {
		m.RecordRequest(route, statusCodeString(status), elapsed)
	}
}

// SyncServer publishes the server's pool stats until ctx is cancelled.
func SyncServer(ctx context.Context, s *httpd.Server, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	m := GetMetrics()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.SyncPoolStats(s.Pool().Stats())
		case <-ctx.Done():
			return
		}
	}
}

// statusCodeString buckets a status code for the metrics label.
func statusCodeString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
