package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type countingJob struct {
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRunner_Start(t *testing.T) {
	t.Run("runs the job under the lock each tick", func(t *testing.T) {
		job := &countingJob{}
		locker := new(MockJobLocker)
		locker.On("TryAcquire", mock.Anything, "counting").Return(true, nil)
		locker.On("Release", mock.Anything, "counting").Return(nil)

		runner := NewRunner(newTestLogger(), job, locker, 5*time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
		defer cancel()

		runner.Start(ctx)

		assert.Greater(t, job.runs.Load(), int64(0))
		locker.AssertCalled(t, "TryAcquire", mock.Anything, "counting")
		locker.AssertCalled(t, "Release", mock.Anything, "counting")
	})

	t.Run("skips ticks while lock is held elsewhere", func(t *testing.T) {
		job := &countingJob{}
		locker := new(MockJobLocker)
		locker.On("TryAcquire", mock.Anything, "counting").Return(false, nil)

		runner := NewRunner(newTestLogger(), job, locker, 5*time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
		defer cancel()

		runner.Start(ctx)

		assert.Zero(t, job.runs.Load())
		locker.AssertNotCalled(t, "Release", mock.Anything, "counting")
	})

	t.Run("job errors do not stop the loop", func(t *testing.T) {
		job := &countingJob{err: errors.New("tick failed")}
		locker := new(MockJobLocker)
		locker.On("TryAcquire", mock.Anything, "counting").Return(true, nil)
		locker.On("Release", mock.Anything, "counting").Return(nil)

		runner := NewRunner(newTestLogger(), job, locker, 5*time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
		defer cancel()

		runner.Start(ctx)

		assert.Greater(t, job.runs.Load(), int64(1))
	})
}
