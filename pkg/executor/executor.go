// Package executor runs a planned job list on a bounded worker pool,
// collecting per-job outcomes without letting one failure abort the rest.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/raidwatch/wcl-harvester/pkg/planner"
	"github.com/raidwatch/wcl-harvester/pkg/rankings"
)

// DefaultWorkers is the worker pool size when none is configured.
const DefaultWorkers = 8

// Prometheus metrics for run execution.
var (
	wclJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wcl_jobs_total",
		Help: "Total harvest jobs by terminal state",
	}, []string{"state"})

	wclRowsInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wcl_rows_inserted_total",
		Help: "Total ranking rows handed to the persistence sink",
	})

	wclJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wcl_job_duration_seconds",
		Help:    "Duration of one harvest job (fetch and persist)",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
	})
)

// Fetcher retrieves the flattened rankings of one encounter. Implemented by
// rankings.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, encounterID, difficultyCode int, regionCode string) ([]rankings.Row, error)
}

// Sink persists harvested rows tagged with their job context. Implemented
// by store.Store.
type Sink interface {
	InsertRankings(ctx context.Context, rows []rankings.Row, raid, boss, difficulty, region string) error
}

// Executor fans a job list out over a fixed-size worker pool. Fetch and
// persist form one unit of work: a persistence failure fails the job.
type Executor struct {
	fetcher Fetcher
	sink    Sink
	workers int
	logger  zerolog.Logger
}

// New creates an Executor. workers <= 0 selects DefaultWorkers.
func New(fetcher Fetcher, sink Sink, workers int) *Executor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Executor{
		fetcher: fetcher,
		sink:    sink,
		workers: workers,
		logger:  log.With().Str("component", "executor").Logger(),
	}
}

// Run executes all jobs and aggregates their outcomes. One job's error is
// recorded in the outcome and never stops sibling jobs or the pool.
func (e *Executor) Run(ctx context.Context, jobs []planner.Job) *Outcome {
	start := time.Now()

	outcome := &Outcome{
		RunID:  uuid.New().String(),
		Errors: make(map[string]string),
	}

	logger := e.logger.With().Str("run_id", outcome.RunID).Logger()
	logger.Info().
		Int("jobs", len(jobs)).
		Int("workers", e.workers).
		Msg("Run started")

	jobQueue := make(chan planner.Job)
	results := make(chan JobResult)

	go func() {
		defer close(jobQueue)
		for _, job := range jobs {
			select {
			case jobQueue <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobQueue {
				results <- e.runJob(ctx, job)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		switch result.State {
		case StateSucceeded:
			outcome.Succeeded++
			outcome.RowsInserted += result.Rows
			wclJobsTotal.WithLabelValues(string(StateSucceeded)).Inc()
			wclRowsInsertedTotal.Add(float64(result.Rows))

			logger.Info().
				Str("raid", result.Job.Raid).
				Str("boss", result.Job.BossName).
				Str("difficulty", result.Job.Difficulty).
				Str("region", result.Job.Region).
				Int("rows", result.Rows).
				Msg("Job succeeded")

		case StateFailed:
			outcome.Failed++
			outcome.Errors[result.Job.String()] = result.Err.Error()
			wclJobsTotal.WithLabelValues(string(StateFailed)).Inc()

			logger.Error().
				Err(result.Err).
				Str("raid", result.Job.Raid).
				Str("boss", result.Job.BossName).
				Str("difficulty", result.Job.Difficulty).
				Str("region", result.Job.Region).
				Msg("Job failed")
		}
	}

	outcome.Elapsed = time.Since(start)

	logger.Info().
		Int("succeeded", outcome.Succeeded).
		Int("failed", outcome.Failed).
		Int("rows", outcome.RowsInserted).
		Dur("elapsed", outcome.Elapsed).
		Msg("Run finished")

	return outcome
}

// runJob executes one job: fetch, then persist. Both steps belong to the
// job's unit of work, so either error yields a failed result.
func (e *Executor) runJob(ctx context.Context, job planner.Job) JobResult {
	start := time.Now()
	defer func() {
		wclJobDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := e.fetcher.Fetch(ctx, job.BossID, job.DifficultyCode, job.RegionCode)
	if err != nil {
		return JobResult{Job: job, State: StateFailed, Err: fmt.Errorf("fetch: %w", err)}
	}

	if err := e.sink.InsertRankings(ctx, rows, job.Raid, job.BossName, job.Difficulty, job.Region); err != nil {
		return JobResult{Job: job, State: StateFailed, Err: fmt.Errorf("persist: %w", err)}
	}

	return JobResult{Job: job, State: StateSucceeded, Rows: len(rows)}
}
