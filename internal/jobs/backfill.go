package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/config"
	"github.com/aulatrack/class-tracker/internal/repository"
	"github.com/aulatrack/class-tracker/internal/service"
)

// BackfillJob periodically recovers recording artifacts for ended classes
// whose recording webhook never arrived. Each sweep looks back a fixed
// window but never closer than the guard interval, since Zoom needs time
// to finish processing a recording after a meeting ends.
type BackfillJob struct {
	classRepo    repository.ClassRepository
	resolver     *service.RecordingResolver
	interval     time.Duration
	startupDelay time.Duration
	guard        time.Duration
	limit        int
	itemDelay    time.Duration
	done         chan struct{}
	now          func() time.Time
}

func NewBackfillJob(
	classRepo repository.ClassRepository,
	resolver *service.RecordingResolver,
	interval time.Duration,
	guard time.Duration,
	limit int,
	itemDelay time.Duration,
) *BackfillJob {
	return &BackfillJob{
		classRepo:    classRepo,
		resolver:     resolver,
		interval:     interval,
		startupDelay: config.BackfillStartupDelay,
		guard:        guard,
		limit:        limit,
		itemDelay:    itemDelay,
		done:         make(chan struct{}),
		now:          time.Now,
	}
}

func (j *BackfillJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Int("limit", j.limit).Msg("recording backfill job started")
}

func (j *BackfillJob) Stop() {
	close(j.done)
	log.Info().Msg("recording backfill job stopped")
}

func (j *BackfillJob) run() {
	// First sweep shortly after start so a restart during an outage
	// recovers quickly, without hammering Zoom while the process is
	// still warming up.
	select {
	case <-j.done:
		return
	case <-time.After(j.startupDelay):
	}

	j.sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *BackfillJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("recording backfill sweep failed")
	}
}

// SweepStats summarizes one backfill pass.
type SweepStats struct {
	Scanned     int
	Updated     int
	Unavailable int
	Failed      int
}

// RunOnce executes a single sweep and returns its counters.
func (j *BackfillJob) RunOnce(ctx context.Context) (SweepStats, error) {
	runID := uuid.NewString()
	now := j.now()

	candidates, err := j.classRepo.FindMissingRecordings(ctx,
		now.Add(-config.BackfillLookback), now.Add(-j.guard), j.limit)
	if err != nil {
		return SweepStats{}, err
	}

	stats := SweepStats{Scanned: len(candidates)}
	logger := log.With().Str("runId", runID).Logger()
	logger.Info().Int("candidates", len(candidates)).Msg("recording backfill sweep started")

	for i := range candidates {
		class := &candidates[i]
		if class.HasRecording() {
			continue
		}

		result, err := j.resolver.FetchAndStore(ctx, class)
		switch {
		case err != nil:
			stats.Failed++
			logger.Warn().Int64("classId", class.ID).Err(err).Msg("recording backfill item failed")
		case result.Empty():
			stats.Unavailable++
		default:
			stats.Updated++
			logger.Info().Int64("classId", class.ID).
				Bool("transcript", result.Transcript != nil).
				Bool("video", result.VideoURL != nil).
				Msg("recording backfilled")
		}

		if i < len(candidates)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(j.itemDelay):
			}
		}
	}

	logger.Info().
		Int("updated", stats.Updated).
		Int("unavailable", stats.Unavailable).
		Int("failed", stats.Failed).
		Msg("recording backfill sweep finished")
	return stats, nil
}
