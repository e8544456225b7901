package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
)

type stubRoller struct {
	days []time.Time
	err  error
}

func (s *stubRoller) RollupDay(_ context.Context, day time.Time) error {
	s.days = append(s.days, day)
	return s.err
}

func TestRollupWorkerParsesDay(t *testing.T) {
	roller := &stubRoller{}
	w := NewRollupStatsWorker(roller, nil)

	job := &river.Job[RollupStatsJobArgs]{Args: RollupStatsJobArgs{Day: "2025-07-10"}}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("work: %v", err)
	}
	if len(roller.days) != 1 {
		t.Fatalf("expected 1 rollup call, got %d", len(roller.days))
	}
	want := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	if !roller.days[0].Equal(want) {
		t.Errorf("day = %v, want %v", roller.days[0], want)
	}
}

func TestRollupWorkerRejectsBadDay(t *testing.T) {
	w := NewRollupStatsWorker(&stubRoller{}, nil)
	job := &river.Job[RollupStatsJobArgs]{Args: RollupStatsJobArgs{Day: "July 10th"}}
	if err := w.Work(context.Background(), job); err == nil {
		t.Fatal("expected error for unparseable day")
	}
}

func TestRollupWorkerPropagatesLedgerError(t *testing.T) {
	w := NewRollupStatsWorker(&stubRoller{err: errors.New("db gone")}, nil)
	job := &river.Job[RollupStatsJobArgs]{Args: RollupStatsJobArgs{Day: "2025-07-10"}}
	if err := w.Work(context.Background(), job); err == nil {
		t.Fatal("expected ledger error to propagate for retry")
	}
}
