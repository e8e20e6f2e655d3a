package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
)

type fakeLock struct {
	held bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	t.Parallel()

	success := &testJob{name: "success"}
	failure := &testJob{name: "failure", err: errors.New("boom")}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(success, failure),
		Lock:     &fakeLock{},
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))

	assert.Equal(t, 1, success.runs)
	assert.Equal(t, 1, failure.runs)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	job := &testJob{name: "noop"}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}
