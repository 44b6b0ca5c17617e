// Command bench runs a goroutine-scaling speedup experiment: for each
// configured goroutine count, it runs tree-bandit search against a
// reference state a fixed number of times and records how many
// iterations each run completed.
package main

import (
	"fmt"
	"time"

	"simzero/bandit"
	"simzero/metrics"
	"simzero/model"
	"simzero/search"
	"simzero/state"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	numRuns    = 10
	timeBudget = 500 * time.Millisecond
	experiment = "goroutine_speedup"
)

var configs = []metrics.BenchConfig{
	{ID: 1, Goroutines: 1, Duration: timeBudget},
	{ID: 2, Goroutines: 8, Duration: timeBudget},
	{ID: 3, Goroutines: 64, Duration: timeBudget},
}

func main() {
	runSpeedupExperiment()
	runTreeReuseWriter()
}

// runTreeReuseWriter drives the self-play tree-reuse experiment and
// persists its records under their own timestamped directory, alongside
// the goroutine-speedup experiment's output.
func runTreeReuseWriter() {
	records := runTreeReuseExperiment()

	writer, err := metrics.NewWriter(selfPlayExperiment)
	if err != nil {
		panic(fmt.Sprintf("failed to create tree-reuse writer: %v", err))
	}
	if err := writer.WriteSearchRecords(records); err != nil {
		panic(fmt.Sprintf("failed to write tree-reuse search records: %v", err))
	}
}

func runSpeedupExperiment() {
	log.Info().Msg("starting goroutine speedup experiment...")

	var records []metrics.SearchRecord
	run := 0
	for _, cfg := range configs {
		log.Info().Msgf("config %+v", cfg)
		for i := 0; i < numRuns; i++ {
			run++
			metric := runSearch(cfg)
			records = append(records, metrics.SearchRecord{
				Run:          run,
				Config:       cfg.ID,
				SearchMetric: metric,
			})
			log.Info().Msgf("run %d: %d iterations in %s", run, metric.Iterations, metric.Duration)
		}
	}

	writer, err := metrics.NewWriter(experiment)
	if err != nil {
		panic(fmt.Sprintf("failed to create benchmark writer: %v", err))
	}
	if err := writer.WriteConfigs(configs); err != nil {
		panic(fmt.Sprintf("failed to write configs: %v", err))
	}
	if err := writer.WriteSearchRecords(records); err != nil {
		panic(fmt.Sprintf("failed to write search records: %v", err))
	}

	log.Info().Msg("finished goroutine speedup experiment")
}

// runSearch drives one tree-bandit run against matching pennies under cfg
// and returns the collected SearchMetric.
func runSearch(cfg metrics.BenchConfig) metrics.SearchMetric {
	s := state.NewMatchingPennies()
	device := rand.New(rand.NewSource(uint64(cfg.ID)))
	tb := search.NewTreeBandit(
		bandit.NewExp3(0.1),
		device,
		search.WithGoroutines(cfg.Goroutines),
		search.WithMetrics(),
	)
	root := &bandit.Node{}

	tb.Run(cfg.Duration, s, model.NewMonteCarlo(1), root)
	return tb.Metrics()
}
