package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/example/ec-storefront/internal/metrics"
)

// Instrument records request count and latency under a fixed endpoint
// label, normally the route pattern, so path ids do not explode cardinality.
func Instrument(m *metrics.Metrics, endpoint string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		m.RequestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
