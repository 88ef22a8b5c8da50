package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the captioning pipeline.
type Metrics struct {
	FramesCaptured    prometheus.Counter
	FramesDropped     prometheus.Counter
	DecodeFailures    prometheus.Counter
	SegmentsFinalized prometheus.Counter
	EmptyWindows      prometheus.Counter
	Discontinuities   prometheus.Counter

	RingOccupancy prometheus.Gauge
	PipelineState prometheus.Gauge

	ChunkLatency    prometheus.Histogram
	SegmentDuration prometheus.Histogram
}

// NewMetrics registers all instruments on reg. Pass a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "jimakun_frames_captured_total",
			Help: "Total number of audio frames delivered by the capture callback",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "jimakun_frames_dropped_total",
			Help: "Total number of frames dropped by ring buffer overruns",
		}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "jimakun_decode_failures_total",
			Help: "Total number of recoverable recognizer decode failures",
		}),
		SegmentsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "jimakun_segments_finalized_total",
			Help: "Total number of finalized caption segments",
		}),
		EmptyWindows: factory.NewCounter(prometheus.CounterOpts{
			Name: "jimakun_empty_windows_total",
			Help: "Total number of utterance windows closed without text",
		}),
		Discontinuities: factory.NewCounter(prometheus.CounterOpts{
			Name: "jimakun_audio_discontinuities_total",
			Help: "Total number of sequence gaps observed by the recognition loop",
		}),
		RingOccupancy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jimakun_ring_occupancy_frames",
			Help: "Current number of frames buffered between capture and recognition",
		}),
		PipelineState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jimakun_pipeline_state",
			Help: "Pipeline lifecycle state (0=idle, 1=capturing, 2=stopped)",
		}),
		ChunkLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jimakun_chunk_latency_seconds",
			Help:    "Capture-to-emission latency per audio chunk",
			Buckets: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2},
		}),
		SegmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jimakun_segment_duration_seconds",
			Help:    "Duration of finalized caption segments",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		}),
	}
}
