package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

type RollupStatsJobArgs struct {
	// Day is the UTC day to roll up, YYYY-MM-DD.
	Day string `json:"day"`
}

func (RollupStatsJobArgs) Kind() string { return "rollup_daily_stats" }

// StatsRoller is the ledger surface the worker needs.
type StatsRoller interface {
	RollupDay(ctx context.Context, day time.Time) error
}

// RollupStatsWorker upserts one day of daily_stats from the usage ledger.
// Re-running for the same day overwrites with the same numbers, so retries
// are harmless.
type RollupStatsWorker struct {
	river.WorkerDefaults[RollupStatsJobArgs]
	ledger StatsRoller
	log    *slog.Logger
}

func NewRollupStatsWorker(ledger StatsRoller, log *slog.Logger) *RollupStatsWorker {
	if log == nil {
		log = slog.Default()
	}
	return &RollupStatsWorker{ledger: ledger, log: log}
}

func (w *RollupStatsWorker) Work(ctx context.Context, job *river.Job[RollupStatsJobArgs]) error {
	day, err := time.ParseInLocation("2006-01-02", job.Args.Day, time.UTC)
	if err != nil {
		return fmt.Errorf("bad rollup day %q: %w", job.Args.Day, err)
	}
	if err := w.ledger.RollupDay(ctx, day); err != nil {
		return fmt.Errorf("rollup %s: %w", job.Args.Day, err)
	}
	w.log.Info("daily stats rolled up", "day", job.Args.Day)
	return nil
}

// PeriodicJobs returns the hourly rollup schedule: each run refreshes today
// and finalizes yesterday (the hour after midnight UTC).
func PeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return RollupStatsJobArgs{Day: time.Now().UTC().Format("2006-01-02")}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return RollupStatsJobArgs{Day: time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}
