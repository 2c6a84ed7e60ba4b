package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carhub"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by service, method and status.",
		},
		[]string{"service", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	kafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Kafka messages by direction, topic and result.",
		},
		[]string{"direction", "topic", "result"},
	)

	kafkaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_message_duration_seconds",
			Help:      "Time spent publishing or handling Kafka messages.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction", "topic"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings persisted, by channel.",
		},
		[]string{"channel"},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the vehicle was taken.",
		},
		[]string{"channel"},
	)
)

const (
	DirectionPublish = "publish"
	DirectionConsume = "consume"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			kafkaMessages,
			kafkaDuration,
			bookingsCreated,
			bookingConflicts,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(service, method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(service, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(service, method).Observe(elapsed.Seconds())
}

func ObserveKafka(direction, topic string, err error, elapsed time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	kafkaMessages.WithLabelValues(direction, topic, result).Inc()
	kafkaDuration.WithLabelValues(direction, topic).Observe(elapsed.Seconds())
}

func IncBookingCreated(channel string) {
	bookingsCreated.WithLabelValues(channel).Inc()
}

func IncBookingConflict(channel string) {
	bookingConflicts.WithLabelValues(channel).Inc()
}
