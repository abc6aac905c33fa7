package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/MeKo-Tech/cnread/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Parallel processing
	Workers         int
	ContinueOnError bool

	// File discovery
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Artifacts written per image
	OverlayDir string
	CropDir    string

	// MetricsFile receives the pipeline metrics in Prometheus text format.
	MetricsFile string

	Progress pipeline.ProgressCallback
	Logger   *slog.Logger
}

// DefaultConfig returns a config that uses every CPU and keeps going on errors.
func DefaultConfig() *Config {
	return &Config{
		Workers:         runtime.NumCPU(),
		ContinueOnError: true,
	}
}

// Item is the outcome for one file. Exactly one of Result and Err is set,
// except after cancellation where both may be empty.
type Item struct {
	File   string
	Result *pipeline.Result
	Err    error
}

// Result holds the result of batch processing.
type Result struct {
	RunID       string
	Items       []Item
	Duration    time.Duration
	WorkerCount int
}

// Results returns the per-file pipeline results in input order; failed
// files have a nil entry.
func (r *Result) Results() []*pipeline.Result {
	out := make([]*pipeline.Result, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Result
	}
	return out
}

// Stats summarises the run.
func (r *Result) Stats() pipeline.ParallelStats {
	return pipeline.CalculateParallelStats(r.Results(), r.Duration, r.WorkerCount)
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r, format)
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(w, output)
	return err
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Run: %s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.TotalImages)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.ProcessedImages)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedImages)
	for _, s := range []pipeline.Status{
		pipeline.StatusFound, pipeline.StatusNoRegion, pipeline.StatusNoText,
		pipeline.StatusSentinel, pipeline.StatusInvalidChecksum,
	} {
		if n := stats.ByStatus[s]; n > 0 {
			_, _ = fmt.Fprintf(w, "    %s: %d\n", s, n)
		}
	}
	_, _ = fmt.Fprintf(w, "  Retried: %d\n", stats.Retried)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
}
