// Package metrics exposes Prometheus metrics for the vocabulary API server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "defaultvocab"

// Registry holds every metric this package defines.
var Registry = prometheus.NewRegistry()

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "api_requests_total",
			Help:      "Count of API requests by route pattern, method and status code.",
		},
		[]string{"route", "method", "code"},
	)
	requestLatencies = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency by route pattern.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"route"},
	)
	trainedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "trained_records_total",
			Help:      "Count of records trained through the API.",
		},
	)
	addedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "added_tokens_total",
			Help:      "Count of new vocabulary entries created through the API.",
		},
	)
	vocabSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "vocabulary_size",
			Help:      "Number of entries in the served vocabulary, special tokens included.",
		},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(requestCounter)
		Registry.MustRegister(requestLatencies)
		Registry.MustRegister(trainedRecords)
		Registry.MustRegister(addedTokens)
		Registry.MustRegister(vocabSize)
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRequest records one finished API request.
func RecordRequest(route, method string, code int, seconds float64) {
	requestCounter.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	requestLatencies.WithLabelValues(route).Observe(seconds)
}

// RecordTrain records a successful training call.
func RecordTrain(records, added int) {
	trainedRecords.Add(float64(records))
	addedTokens.Add(float64(added))
}

// SetVocabularySize records the current vocabulary size.
func SetVocabularySize(n int) {
	vocabSize.Set(float64(n))
}
