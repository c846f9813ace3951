package optimization

import (
	"github.com/rs/zerolog"
)

// RefreshJob re-runs the allocation over every symbol with stored history.
// It is registered with the cron scheduler when HRP_REFRESH_SCHEDULE is set.
type RefreshJob struct {
	service *Service
	log     zerolog.Logger
}

// NewRefreshJob creates a refresh job bound to the optimizer service.
func NewRefreshJob(service *Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		log:     log.With().Str("component", "hrp_refresh_job").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string { return "hrp_refresh" }

// Run implements scheduler.Job.
func (j *RefreshJob) Run() error {
	result, err := j.service.RunForSymbols(nil)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", result.ID).
		Int("weights", len(result.Weights)).
		Msg("Scheduled optimization refreshed")

	return nil
}
