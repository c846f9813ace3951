package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name string
	runs int
	err  error
}

func (j *fakeJob) Name() string { return j.name }
func (j *fakeJob) Run() error {
	j.runs++
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("*/5 * * * *", &fakeJob{name: "ok"})
	assert.NoError(t, err)

	err = s.AddJob("@daily", &fakeJob{name: "macro"})
	assert.NoError(t, err)

	err = s.AddJob("not a cron expression", &fakeJob{name: "bad"})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &fakeJob{name: "immediate"}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &fakeJob{name: "failing", err: errors.New("boom")}
	assert.Error(t, s.RunNow(failing))
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@hourly", &fakeJob{name: "noop"}))

	s.Start()
	s.Stop()
}
