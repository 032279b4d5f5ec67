package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballistics_runs_total",
			Help: "Runs by final outcome (impact, superseded, stopped, step_limit).",
		},
		[]string{"outcome"},
	)

	runsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballistics_runs_started_total",
		Help: "Total number of runs started.",
	})

	stepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballistics_integration_steps_total",
		Help: "Total number of integration steps taken.",
	})

	batchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ballistics_batch_duration_seconds",
		Help:    "Wall time of one integration batch.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	flightSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ballistics_flight_time_seconds",
		Help:    "Simulated flight time of runs that reached the surface.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	activeRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ballistics_run_active",
		Help: "1 while a run is in flight.",
	})

	streamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ballistics_stream_clients",
		Help: "Connected websocket stream clients.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballistics_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ballistics_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		runsStarted,
		stepsTotal,
		batchSeconds,
		flightSeconds,
		activeRun,
		streamClients,
		httpRequestsTotal,
		httpDurationSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RunStarted marks a new run in flight.
func RunStarted() {
	runsStarted.Inc()
	activeRun.Set(1)
}

// RunEnded records why a run stopped. flight is the simulated time and is
// only observed for impacts.
func RunEnded(outcome string, flight float64) {
	runsTotal.WithLabelValues(outcome).Inc()
	if outcome == "impact" {
		flightSeconds.Observe(flight)
	}
}

// RunIdle marks that no run is in flight.
func RunIdle() {
	activeRun.Set(0)
}

// RecordBatch records one Advance call.
func RecordBatch(steps int, d time.Duration) {
	stepsTotal.Add(float64(steps))
	batchSeconds.Observe(d.Seconds())
}

// StreamClientConnected / StreamClientDisconnected track websocket clients.
func StreamClientConnected()    { streamClients.Inc() }
func StreamClientDisconnected() { streamClients.Dec() }

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request count and duration for each request. Paths are
// labelled by their route template so run ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
