package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	errs     []error // returned in order, nil afterwards
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := int(j.calls.Add(1)) - 1
	if n < len(j.errs) {
		return j.errs[n]
	}
	return nil
}

var errPermanent = errors.New("permanent")

func newTestScheduler() *Scheduler {
	return New(logger.Nop(),
		WithRetry(2, 0),
		WithRetryable(func(err error) bool { return !errors.Is(err, errPermanent) }),
	)
}

func TestAddAndRemoveJob(t *testing.T) {
	s := newTestScheduler()

	job := &fakeJob{name: "train", schedule: "0 0 18 * * 1-5"}
	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name")
	assert.Equal(t, []string{"train"}, s.GetAllJobs())

	_, ok := s.NextRun("train")
	assert.True(t, ok)

	require.NoError(t, s.RemoveJob("train"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("train"))

	_, ok = s.NextRun("train")
	assert.False(t, ok)
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	// five fields are rejected, seconds are required
	err := s.AddJob(&fakeJob{name: "bad", schedule: "0 18 * * 1-5"})
	assert.Error(t, err)
	assert.Empty(t, s.GetAllJobs())
}

func TestRunJob(t *testing.T) {
	tests := []struct {
		name     string
		errs     []error
		success  bool
		attempts int
	}{
		{name: "first try", success: true, attempts: 1},
		{name: "retried then ok", errs: []error{errors.New("flaky")}, success: true, attempts: 2},
		{name: "retries exhausted", errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}, success: false, attempts: 3},
		{name: "not retryable", errs: []error{errPermanent}, success: false, attempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			job := &fakeJob{name: "job", schedule: "@daily", errs: tt.errs}
			require.NoError(t, s.AddJob(job))

			res, err := s.RunJob(context.Background(), "job")
			require.NoError(t, err)

			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.attempts, res.Attempts)
			assert.Equal(t, int32(tt.attempts), job.calls.Load())
			if tt.success {
				assert.Empty(t, res.Error)
			} else {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()
	_, err := s.RunJob(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRetryStopsOnCancel(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &fakeJob{name: "job", schedule: "@daily", errs: []error{errors.New("x"), errors.New("y")}}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.RunJob(ctx, "job")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int32(1), job.calls.Load())
	assert.Equal(t, context.Canceled.Error(), res.Error)
}

func TestJobStats(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "job", schedule: "@daily", errs: []error{errPermanent}}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunJob(context.Background(), "job") // fails
	_, _ = s.RunJob(context.Background(), "job") // succeeds

	history, err := s.GetJobHistory("job")
	require.NoError(t, err)
	assert.Len(t, history.Results, 2)

	st := s.GetJobStats()["job"]
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	require.NotNil(t, st.LastSuccess)
	assert.Nil(t, st.LastFailure)

	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestJobHistoryLimit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+10; i++ {
		h.AddResult(JobResult{Attempts: i, Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyLimit)
	last, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, historyLimit+9, last.Attempts)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}
