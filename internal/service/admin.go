package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/config"
	"github.com/aulatrack/class-tracker/internal/repository"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

// AdminService hosts one-off maintenance operations.
type AdminService struct {
	classRepo repository.ClassRepository
	zoom      zoom.ClientAPI
	itemDelay time.Duration
}

func NewAdminService(classRepo repository.ClassRepository, zoomClient zoom.ClientAPI) *AdminService {
	return &AdminService{
		classRepo: classRepo,
		zoom:      zoomClient,
		itemDelay: config.SupervisorBackfillItemDelay,
	}
}

// BackfillSupervisorURLs fills the privileged start URL for live and
// scheduled rows that lack one, pacing provider calls to stay inside rate
// limits. Per-row failures are skipped, not fatal.
func (s *AdminService) BackfillSupervisorURLs(ctx context.Context) (int, error) {
	classes, err := s.classRepo.FindMissingSupervisorURL(ctx, config.SupervisorBackfillLimit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i, class := range classes {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		detailCtx, cancel := context.WithTimeout(ctx, config.ZoomDetailTimeout)
		detail, err := s.zoom.GetMeeting(detailCtx, class.ZoomMeetingID)
		cancel()
		if err != nil {
			log.Warn().Int64("classId", class.ID).Err(err).Msg("supervisor url lookup failed")
			continue
		}
		if detail.StartURL == "" {
			continue
		}

		if err := s.classRepo.UpdateSupervisorURL(ctx, class.ID, detail.StartURL); err != nil {
			log.Error().Int64("classId", class.ID).Err(err).Msg("supervisor url update failed")
			continue
		}
		updated++

		if i < len(classes)-1 {
			select {
			case <-ctx.Done():
				return updated, ctx.Err()
			case <-time.After(s.itemDelay):
			}
		}
	}

	log.Info().Int("updated", updated).Int("candidates", len(classes)).
		Msg("supervisor url backfill finished")
	return updated, nil
}
