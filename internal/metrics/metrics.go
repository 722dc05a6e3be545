package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Results
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultRetry   = "retry"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"

	// Worker outcomes
	OutcomeWebhookFound = "webhook_found"
	OutcomeIdle         = "idle"

	// HTTP endpoints
	EndpointWebhook       = "webhook_callback"
	EndpointAuthorize     = "strava_authorize"
	EndpointIssue         = "challenge_issue"
	EndpointClaim         = "challenge_claim"
	EndpointRecordPayment = "record_payment"
	EndpointHealth        = "health"

	// Strava API operations
	OpExchangeCode       = "exchange_code"
	OpRefreshToken       = "refresh_token"
	OpGetActivity        = "get_activity"
	OpCreateSubscription = "create_subscription"
	OpDeleteSubscription = "delete_subscription"
	OpListSubscriptions  = "list_subscriptions"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Challenge lifecycle metrics
var (
	ChallengesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "challenges_issued_total",
			Help: "Total number of challenges issued after oracle validation",
		},
	)

	ChallengesCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "challenges_completed_total",
			Help: "Total number of challenges marked complete by validation",
		},
	)

	PaymentsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Total number of bounty payments recorded after on-chain confirmation",
		},
	)

	AttestationsSignedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attestations_signed_total",
			Help: "Total number of bounty-claim attestations signed",
		},
	)

	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validations_total",
			Help: "Total number of webhook validation runs by result",
		},
		[]string{"result"},
	)
)

// External collaborator metrics
var (
	StravaAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_api_requests_total",
			Help: "Total number of Strava API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	OracleReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_reads_total",
			Help: "Total number of on-chain oracle reads by result",
		},
		[]string{"result"},
	)

	TokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Total number of access token refreshes",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification emails sent by result",
		},
		[]string{"result"},
	)
)

// Queue and worker metrics
var (
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhook_queue_depth",
			Help: "Number of webhook events in the queue",
		},
	)

	QueueEnqueueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_queue_enqueue_total",
			Help: "Total number of webhook events enqueued",
		},
	)

	QueueDequeueTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_queue_dequeue_total",
			Help: "Total number of webhook events dequeued with outcome",
		},
		[]string{"result"},
	)

	QueueProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_queue_processing_duration_seconds",
			Help:    "Time spent processing webhook events",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"result"},
	)

	WorkerPollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_poll_cycles_total",
			Help: "Total number of worker poll cycles by outcome",
		},
		[]string{"outcome"},
	)

	WorkerActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_active",
			Help: "Whether the worker is currently active (1) or not (0)",
		},
	)
)
