// Package metrics exposes the pipeline's Prometheus instruments: tick
// and recognizer timing, OCR latency/timeouts, frame buffer state, and
// scene transitions. Every label set is drawn from the fixed, small
// vocabulary of scene.State names, never from OCR output or capture
// paths, so cardinality stays bounded regardless of what the capture
// source feeds in.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smabrog_tick_duration_seconds",
		Help:    "Time spent processing one captured frame through the dispatcher",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	recognizerMatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smabrog_recognizer_match_duration_seconds",
		Help:    "Time spent in a single recognizer's IsScene call",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	}, []string{"scene"}) // bounded: scene.State.String() values only

	ocrDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smabrog_ocr_duration_seconds",
		Help:    "Time spent in a single tesseract subprocess invocation",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"mode"}) // bounded: ocr.Mode values only

	ocrTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smabrog_ocr_timeouts_total",
		Help: "Tesseract subprocess invocations that exceeded their context deadline",
	})

	frameBufferState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "smabrog_framebuffer_state",
		Help: "1 if the named framebuffer state is current, 0 otherwise",
	}, []string{"state"}) // bounded: framebuffer.State names only

	sceneTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smabrog_scene_transitions_total",
		Help: "Dispatcher scene transitions by origin and destination state",
	}, []string{"from", "to"})

	capturedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smabrog_captured_frames_total",
		Help: "Frames successfully pulled from the active capture source",
	})

	frameUnavailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smabrog_frame_unavailable_total",
		Help: "Transient frame-unavailable errors tolerated by the tick loop",
	})
)

// RecordTick records one dispatcher tick's wall time.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordRecognizerMatch records one recognizer's IsScene call, labeled
// by the state it was evaluated while holding.
func RecordRecognizerMatch(scene string, d time.Duration) {
	recognizerMatchDuration.WithLabelValues(scene).Observe(d.Seconds())
}

// RecordOCR records one tesseract subprocess call's duration.
func RecordOCR(mode string, d time.Duration) {
	ocrDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordOCRTimeout increments the OCR timeout counter.
func RecordOCRTimeout() {
	ocrTimeoutsTotal.Inc()
}

// SetFrameBufferState marks state as current, zeroing every other known
// state so the gauge vector always reflects exactly one active state.
func SetFrameBufferState(current string, allStates []string) {
	for _, s := range allStates {
		if s == current {
			frameBufferState.WithLabelValues(s).Set(1)
		} else {
			frameBufferState.WithLabelValues(s).Set(0)
		}
	}
}

// RecordSceneTransition increments the transition counter for one
// dispatcher state change.
func RecordSceneTransition(from, to string) {
	sceneTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordFrameCaptured increments the successfully-captured frame counter.
func RecordFrameCaptured() {
	capturedFramesTotal.Inc()
}

// RecordFrameUnavailable increments the transient frame-unavailable
// counter.
func RecordFrameUnavailable() {
	frameUnavailableTotal.Inc()
}
