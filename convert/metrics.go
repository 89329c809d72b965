package convert

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts conversions. A nil *Metrics records nothing.
type Metrics struct {
	conversions  *prometheus.CounterVec
	records      *prometheus.CounterVec
	inputBytes   prometheus.Counter
	aliasedBytes prometheus.Counter
	duration     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bin2hex",
			Name:      "conversions_total",
			Help:      "Conversions attempted, by result",
		}, []string{"result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bin2hex",
			Name:      "records_total",
			Help:      "Intel HEX records written, by record type",
		}, []string{"type"}),
		inputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bin2hex",
			Name:      "input_bytes_total",
			Help:      "Binary bytes encoded",
		}),
		aliasedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bin2hex",
			Name:      "aliased_bytes_total",
			Help:      "Bytes written to a 16-bit address that was already used in the same file",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bin2hex",
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of a single conversion",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.conversions, m.records, m.inputBytes, m.aliasedBytes, m.duration)
	return m
}

func (m *Metrics) observeRun(res *Result, err error) {
	if m == nil {
		return
	}

	m.duration.Observe(res.Duration.Seconds())
	if err != nil {
		m.conversions.WithLabelValues("error").Inc()
		return
	}

	m.conversions.WithLabelValues("ok").Inc()
	m.records.WithLabelValues("data").Add(float64(res.DataRecords))
	m.records.WithLabelValues("eof").Inc()
	m.inputBytes.Add(float64(res.Bytes))
	m.aliasedBytes.Add(float64(res.AliasedBytes))
}
