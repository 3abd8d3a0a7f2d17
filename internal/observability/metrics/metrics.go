package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wardenlink_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_login_attempts_total",
		Help: "Login attempts by method and result",
	}, []string{"method", "result"})

	inviteOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_invite_operations_total",
		Help: "Invite creations and redemptions by result",
	}, []string{"operation", "result"})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_messages_sent_total",
		Help: "Messages persisted by kind",
	}, []string{"kind"})

	postsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_posts_created_total",
		Help: "Feed posts created by category",
	}, []string{"category"})

	pollVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_poll_votes_total",
		Help: "Poll votes by result",
	}, []string{"result"})

	pollsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardenlink_polls_closed_total",
		Help: "Polls closed by source",
	}, []string{"source"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wardenlink_websocket_connections",
		Help: "Open websocket connections on this instance",
	})

	onlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wardenlink_online_users",
		Help: "Users with at least one open session",
	})

	droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wardenlink_realtime_events_dropped_total",
		Help: "Realtime frames dropped for slow clients",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt. method is "password" or "cnic".
func ObserveLogin(method, result string) {
	loginAttempts.WithLabelValues(method, result).Inc()
}

// ObserveInvite counts an invite create or redeem outcome.
func ObserveInvite(operation, result string) {
	inviteOperations.WithLabelValues(operation, result).Inc()
}

// ObserveMessage counts a persisted message. kind is "direct" or "group".
func ObserveMessage(kind string) {
	messagesSent.WithLabelValues(kind).Inc()
}

// ObservePost counts a created feed post.
func ObservePost(category string) {
	postsCreated.WithLabelValues(category).Inc()
}

// ObserveVote counts a vote attempt.
func ObserveVote(result string) {
	pollVotes.WithLabelValues(result).Inc()
}

// ObservePollsClosed counts polls closed manually or by the sweeper.
func ObservePollsClosed(source string, n int) {
	if n > 0 {
		pollsClosed.WithLabelValues(source).Add(float64(n))
	}
}

// WebsocketOpened increments the connection gauge.
func WebsocketOpened() { wsConnections.Inc() }

// WebsocketClosed decrements the connection gauge.
func WebsocketClosed() { wsConnections.Dec() }

// SetOnlineUsers sets the online user gauge.
func SetOnlineUsers(n int) {
	if n < 0 {
		n = 0
	}
	onlineUsers.Set(float64(n))
}

// ObserveDroppedEvent counts a frame dropped for a slow client.
func ObserveDroppedEvent() { droppedEvents.Inc() }

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
