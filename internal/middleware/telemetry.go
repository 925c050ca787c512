package middleware

import (
	"bufio"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status   int
	bytes    int
	hijacked bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.hijacked = true
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// latencyWindow is a fixed-size ring of recent durations in milliseconds.
type latencyWindow struct {
	samples []int64
	next    int
}

func (w *latencyWindow) add(value int64, size int) {
	if len(w.samples) < size {
		w.samples = append(w.samples, value)
		return
	}
	w.samples[w.next] = value
	w.next = (w.next + 1) % size
}

type latencyAggregator struct {
	mu     sync.Mutex
	window int
	routes map[string]*latencyWindow
}

func newLatencyAggregator(window int) *latencyAggregator {
	return &latencyAggregator{window: window, routes: make(map[string]*latencyWindow)}
}

// record adds a sample for key and returns the route's p50 and p95.
func (a *latencyAggregator) record(key string, value int64) (int64, int64) {
	a.mu.Lock()
	win, ok := a.routes[key]
	if !ok {
		win = &latencyWindow{}
		a.routes[key] = win
	}
	win.add(value, a.window)
	values := append([]int64(nil), win.samples...)
	a.mu.Unlock()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return percentile(values, 0.5), percentile(values, 0.95)
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

var telemetryLatency = newLatencyAggregator(200)

// Telemetry logs one line per request with the chi route pattern and the
// route's recent latency percentiles.
func Telemetry(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(recorder, r)

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			routePattern := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				routePattern = rc.RoutePattern()
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("routePattern", routePattern),
				zap.String("requestId", readRequestID(r)),
				zap.Int("status", status),
				zap.Int("bytes", recorder.bytes),
				zap.Int64("duration_ms", duration.Milliseconds()),
			}
			// long-lived websocket sessions would skew the route percentiles
			if !recorder.hijacked {
				key := r.Method + " " + routePattern
				if routePattern == "" {
					key = r.Method + " " + r.URL.Path
				}
				p50, p95 := telemetryLatency.record(key, duration.Milliseconds())
				fields = append(fields, zap.Int64("p50_ms", p50), zap.Int64("p95_ms", p95))
			}

			switch {
			case status >= 500:
				logger.Error("http_request", fields...)
			case status >= 400:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}
