package calculations

import "github.com/rs/zerolog"

// CleanupJob periodically purges expired cache entries so the cache file
// does not grow without bound.
type CleanupJob struct {
	cache *Cache
	log   zerolog.Logger
}

// NewCleanupJob creates a cleanup job for the given cache.
func NewCleanupJob(cache *Cache, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		cache: cache,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}

// Run purges expired entries from the cache.
func (j *CleanupJob) Run() error {
	n, err := j.cache.PurgeExpired()
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Info().Int64("removed", n).Msg("Purged expired cache entries")
	}
	return nil
}
