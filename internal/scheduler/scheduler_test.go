package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyJob struct {
	name     string
	failures int32
	calls    atomic.Int32
}

func (j *flakyJob) Name() string     { return j.name }
func (j *flakyJob) Schedule() string { return "@hourly" }
func (j *flakyJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestRunJobRetriesUntilSuccess(t *testing.T) {
	s := New(zerolog.Nop(), WithRetries(3, 0))
	job := &flakyJob{name: "flaky", failures: 2}
	require.NoError(t, s.AddJob(job))

	result := s.runJob(job)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)

	history, err := s.History("flaky")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestRunJobGivesUp(t *testing.T) {
	s := New(zerolog.Nop(), WithRetries(1, 0))
	job := &flakyJob{name: "broken", failures: 100}
	require.NoError(t, s.AddJob(job))

	result := s.runJob(job)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "transient", result.Error)
	assert.EqualValues(t, 2, job.calls.Load())
}

func TestAddJobValidation(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob(&flakyJob{name: "a"}))
	assert.Error(t, s.AddJob(&flakyJob{name: "a"}), "duplicate job")

	bad := NewReevaluateJob(stubReevaluator{}, "not a cron spec", zerolog.Nop())
	assert.Error(t, s.AddJob(bad))

	assert.Equal(t, []string{"a"}, s.Jobs())
	assert.Error(t, s.RunJob("missing"))
	_, err := s.History("missing")
	assert.Error(t, err)
}

func TestRunJobAndStop(t *testing.T) {
	s := New(zerolog.Nop(), WithRetries(0, 0))
	job := &flakyJob{name: "once"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	require.NoError(t, s.RunJob("once"))
	s.Stop()

	assert.EqualValues(t, 1, job.calls.Load())
	history, err := s.History("once")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStopCancelsRetryWait(t *testing.T) {
	s := New(zerolog.Nop(), WithRetries(5, time.Hour))
	job := &flakyJob{name: "slow", failures: 100}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("slow"))

	time.Sleep(20 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not interrupt the retry wait")
	}
	history, err := s.History("slow")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Zero(t, h.SuccessRate())
	assert.Empty(t, h.Latest(5))

	for i := 0; i < historyLimit+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
	assert.Len(t, h.Latest(3), 3)
}

type stubReevaluator struct {
	n   int
	err error
}

func (s stubReevaluator) EvaluateAll(ctx context.Context) (int, error) { return s.n, s.err }

func TestReevaluateJob(t *testing.T) {
	job := NewReevaluateJob(stubReevaluator{n: 3}, "", zerolog.Nop())
	assert.Equal(t, "reevaluate_all", job.Name())
	assert.Equal(t, DefaultReevaluateSchedule, job.Schedule())
	assert.NoError(t, job.Run(context.Background()))

	failing := NewReevaluateJob(stubReevaluator{err: errors.New("partial")}, "@daily", zerolog.Nop())
	assert.Equal(t, "@daily", failing.Schedule())
	assert.EqualError(t, failing.Run(context.Background()), "partial")
}
