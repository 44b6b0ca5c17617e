package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// BenchConfig is one benchmark configuration: a goroutine count and
// duration budget shared across every search invocation run under it.
type BenchConfig struct {
	ID         int
	Goroutines int
	Duration   time.Duration
}

// SearchRecord ties a completed SearchMetric back to the run and
// configuration that produced it.
type SearchRecord struct {
	Run    int // RunMetric ordinal
	Config int // BenchConfig.ID
	SearchMetric
}

// Writer persists benchmark output as CSV under a timestamped directory,
// one file per record kind.
type Writer struct {
	baseDir string
}

// NewWriter creates a fresh timestamped output directory under
// metrics/runs/<name>-<timestamp> and returns a Writer rooted there.
func NewWriter(name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join("metrics", "runs", fmt.Sprintf("%s-%s", name, timestamp))
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

func (w *Writer) WriteConfigs(configs []BenchConfig) error {
	path := filepath.Join(w.baseDir, "configs.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create configs file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "goroutines", "duration"}); err != nil {
		return fmt.Errorf("failed to write configs header: %w", err)
	}
	for _, cfg := range configs {
		row := []string{
			strconv.Itoa(cfg.ID),
			strconv.Itoa(cfg.Goroutines),
			cfg.Duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write config row: %w", err)
		}
	}
	return nil
}

func (w *Writer) WriteRunRecords(records []RunMetric) error {
	path := filepath.Join(w.baseDir, "run_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create run records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"config", "state", "start_time", "end_time", "duration", "total_moves"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write run records header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Config),
			r.State,
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
			r.Duration.String(),
			strconv.Itoa(r.TotalMoves),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write run record row: %w", err)
		}
	}
	return nil
}

func (w *Writer) WriteSearchRecords(records []SearchRecord) error {
	path := filepath.Join(w.baseDir, "search_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create search records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"run", "config", "algorithm", "goroutines", "duration", "iterations", "tree_reused"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write search records header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Run),
			strconv.Itoa(r.Config),
			r.Algorithm,
			strconv.Itoa(r.Goroutines),
			r.Duration.String(),
			strconv.Itoa(r.Iterations),
			strconv.FormatBool(r.IsTreeReused),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write search record row: %w", err)
		}
	}
	return nil
}
