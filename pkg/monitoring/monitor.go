package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 考试相关指标
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_sessions_started_total",
			Help: "Exam sessions started, by subject",
		},
		[]string{"subject"},
	)

	SessionsAbandoned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_sessions_abandoned_total",
			Help: "Exam sessions dropped before submission",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exam_sessions_active",
			Help: "Exam sessions currently in progress",
		},
	)

	AttemptsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_attempts_total",
			Help: "Finished attempts, by subject and how they ended",
		},
		[]string{"subject", "outcome"},
	)

	AttemptPercentage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_attempt_percentage",
			Help:    "Score percentage of finished attempts",
			Buckets: []float64{50, 60, 70, 80, 90, 100},
		},
	)

	// 用户与付费指标
	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Accounts created",
		},
	)

	TrialsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trials_expired_total",
			Help: "Trials moved to expired on load",
		},
	)

	PaymentsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_reviewed_total",
			Help: "Payment reviews, by decision",
		},
		[]string{"decision"},
	)

	QuestionsImported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questions_imported_total",
			Help: "Bulk import lines, by result",
		},
		[]string{"result"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SessionsStarted,
			SessionsAbandoned,
			ActiveSessions,
			AttemptsRecorded,
			AttemptPercentage,
			UsersRegistered,
			TrialsExpired,
			PaymentsReviewed,
			QuestionsImported,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
