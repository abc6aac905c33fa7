package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one pipeline. Each pipeline gets its own
// registry so several can coexist in tests and batch runs.
type Metrics struct {
	Registry *prometheus.Registry

	imagesTotal       *prometheus.CounterVec
	selectionsTotal   *prometheus.CounterVec
	reassemblyTotal   *prometheus.CounterVec
	retriesTotal      prometheus.Counter
	processingSeconds *prometheus.HistogramVec
	regionBoxes       prometheus.Histogram
}

// NewMetrics registers the pipeline metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		imagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnread_images_total",
				Help: "Images processed, by outcome status",
			},
			[]string{"status"}, // found, no_region, no_text, sentinel, invalid_checksum, error
		),
		selectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnread_region_selections_total",
				Help: "Region selections, by kind",
			},
			[]string{"kind"},
		),
		reassemblyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnread_reassembly_decisions_total",
				Help: "Character stage decisions, by decision and orientation",
			},
			[]string{"decision", "orientation"},
		),
		retriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cnread_recognition_retries_total",
				Help: "Second recognition passes on the original crop",
			},
		),
		processingSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cnread_stage_duration_seconds",
				Help:    "Time spent per pipeline stage",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"stage"}, // detect, select, chars, recognize, total
		),
		regionBoxes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cnread_region_boxes",
				Help:    "Region boxes kept after confidence filtering",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 25},
			},
		),
	}
}

func (m *Metrics) observe(res *Result) {
	if m == nil || res == nil {
		return
	}
	m.imagesTotal.WithLabelValues(string(res.Status)).Inc()
	m.selectionsTotal.WithLabelValues(res.Selection.String()).Inc()
	if res.Characters != nil {
		m.reassemblyTotal.WithLabelValues(res.Characters.Decision.String(), res.Orientation.String()).Inc()
	}
	if res.Retried {
		m.retriesTotal.Inc()
	}
	m.regionBoxes.Observe(float64(res.RegionBoxes))
	t := res.Timing
	m.processingSeconds.WithLabelValues("detect").Observe(seconds(t.DetectNs))
	m.processingSeconds.WithLabelValues("select").Observe(seconds(t.SelectNs))
	m.processingSeconds.WithLabelValues("chars").Observe(seconds(t.CharsNs))
	m.processingSeconds.WithLabelValues("recognize").Observe(seconds(t.RecognizeNs))
	m.processingSeconds.WithLabelValues("total").Observe(seconds(t.TotalNs))
}

func (m *Metrics) observeError() {
	if m == nil {
		return
	}
	m.imagesTotal.WithLabelValues("error").Inc()
}

// WriteToTextfile writes the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func seconds(ns int64) float64 { return float64(ns) / 1e9 }
