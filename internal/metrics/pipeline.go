package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for datasets and analyses
type PipelineMetrics struct {
	datasetsTotal      *prometheus.CounterVec
	analysesTotal      *prometheus.CounterVec
	analysisDuration   *prometheus.HistogramVec
	commentsAnalyzed   prometheus.Counter
	suspiciousDetected prometheus.Counter
	modelAccuracy      prometheus.Gauge
	commentsScored     prometheus.Counter
	bufferedDatasets   prometheus.GaugeFunc
	bufferLen          func() int
}

// NewPipelineMetrics creates and registers new pipeline metrics
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}

	m.datasetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_datasets_created_total",
			Help: "Total number of datasets created",
		},
		[]string{"source"}, // generated, uploaded
	)

	m.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_analyses_total",
			Help: "Total number of finished analyses",
		},
		[]string{"status"}, // COMPLETED, FAILED
	)

	m.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_analysis_duration_seconds",
			Help:    "Time taken to run an analysis end to end",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"status"},
	)

	m.commentsAnalyzed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "argus_comments_analyzed_total",
		Help: "Total number of comments processed by completed analyses",
	})

	m.suspiciousDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "argus_suspicious_comments_total",
		Help: "Total number of comments predicted suspicious",
	})

	m.modelAccuracy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "argus_model_accuracy",
		Help: "Held-out accuracy of the most recent completed analysis",
	})

	m.commentsScored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "argus_comments_scored_total",
		Help: "Total number of ad-hoc comments scored with a stored model",
	})

	m.bufferedDatasets = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "argus_buffered_datasets",
		Help: "Number of datasets whose tables are waiting for analysis",
	}, func() float64 {
		if m.bufferLen == nil {
			return 0
		}
		return float64(m.bufferLen())
	})

	collectors := collectorSet{
		m.datasetsTotal,
		m.analysesTotal,
		m.analysisDuration,
		m.commentsAnalyzed,
		m.suspiciousDetected,
		m.modelAccuracy,
		m.commentsScored,
		m.bufferedDatasets,
	}
	if err := registry.Register(collectors); err != nil {
		return nil, err
	}

	return m, nil
}

// TrackBuffer reports size as the number of buffered datasets.
func (m *PipelineMetrics) TrackBuffer(size func() int) {
	if m == nil {
		return
	}
	m.bufferLen = size
}

// RecordDataset counts a created dataset.
func (m *PipelineMetrics) RecordDataset(source string) {
	if m == nil {
		return
	}
	m.datasetsTotal.WithLabelValues(source).Inc()
}

// RecordAnalysis records a finished analysis. Comment counters and the
// accuracy gauge only move for completed runs.
func (m *PipelineMetrics) RecordAnalysis(status string, duration time.Duration, comments, suspicious int, accuracy float64, completed bool) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(status).Inc()
	m.analysisDuration.WithLabelValues(status).Observe(duration.Seconds())
	if !completed {
		return
	}
	m.commentsAnalyzed.Add(float64(comments))
	m.suspiciousDetected.Add(float64(suspicious))
	m.modelAccuracy.Set(accuracy)
}

// RecordScored counts comments scored against a stored model.
func (m *PipelineMetrics) RecordScored(n int) {
	if m == nil {
		return
	}
	m.commentsScored.Add(float64(n))
}
