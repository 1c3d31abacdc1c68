package scheduler

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultReevaluateSchedule runs the re-evaluation nightly at 03:00.
const DefaultReevaluateSchedule = "0 3 * * *"

// Reevaluator re-evaluates every registered repository.
type Reevaluator interface {
	EvaluateAll(ctx context.Context) (int, error)
}

// ReevaluateJob refreshes every repository's evaluation, so trends pick up
// newly stored months.
type ReevaluateJob struct {
	svc      Reevaluator
	schedule string
	log      zerolog.Logger
}

// NewReevaluateJob creates the job. An empty schedule uses
// DefaultReevaluateSchedule.
func NewReevaluateJob(svc Reevaluator, schedule string, log zerolog.Logger) *ReevaluateJob {
	if schedule == "" {
		schedule = DefaultReevaluateSchedule
	}
	return &ReevaluateJob{svc: svc, schedule: schedule, log: log}
}

func (j *ReevaluateJob) Name() string     { return "reevaluate_all" }
func (j *ReevaluateJob) Schedule() string { return j.schedule }

// Run re-evaluates all repositories. Partial failures fail the run so the
// scheduler retries; repositories that succeeded are simply evaluated again.
func (j *ReevaluateJob) Run(ctx context.Context) error {
	n, err := j.svc.EvaluateAll(ctx)
	j.log.Debug().Int("evaluated", n).Msg("re-evaluation pass")
	return err
}
