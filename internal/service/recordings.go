package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/config"
	"github.com/aulatrack/class-tracker/internal/model"
	"github.com/aulatrack/class-tracker/internal/repository"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

// RecordingResult is the (possibly partial) outcome of a recording lookup.
type RecordingResult struct {
	Transcript *string
	VideoURL   *string
}

func (r RecordingResult) Empty() bool {
	return r.Transcript == nil && r.VideoURL == nil
}

// RecordingResolver retrieves transcript and video artifacts for an
// occurrence after the fact, when the recording webhook was missed or has
// not arrived. Lookup strategies are tried in fixed priority order and the
// resolver degrades to partial results instead of failing.
type RecordingResolver struct {
	classRepo repository.ClassRepository
	zoom      zoom.ClientAPI
}

func NewRecordingResolver(classRepo repository.ClassRepository, zoomClient zoom.ClientAPI) *RecordingResolver {
	return &RecordingResolver{classRepo: classRepo, zoom: zoomClient}
}

// Fetch locates the recording listing for a class and extracts its
// transcript text and tokenized video URL. It fails only when every lookup
// strategy is exhausted; individual file download failures leave the
// corresponding field unset.
func (s *RecordingResolver) Fetch(ctx context.Context, class *model.Class) (RecordingResult, error) {
	set := s.findRecordingSet(ctx, class)
	if set == nil {
		return RecordingResult{}, fmt.Errorf("no recording listing found for class %d", class.ID)
	}

	var result RecordingResult

	if transcriptFile := zoom.SelectTranscriptFile(set.RecordingFiles); transcriptFile != nil && transcriptFile.DownloadURL != "" {
		downloadCtx, cancel := context.WithTimeout(ctx, config.ZoomDownloadTimeout)
		text, err := s.zoom.DownloadText(downloadCtx, transcriptFile.DownloadURL)
		cancel()
		if err != nil {
			log.Warn().Int64("classId", class.ID).Err(err).Msg("transcript download failed")
		} else {
			result.Transcript = &text
		}
	}

	if videoFile := zoom.SelectVideoFile(set.RecordingFiles); videoFile != nil && videoFile.DownloadURL != "" {
		token, err := s.zoom.AccessToken(ctx)
		if err != nil {
			log.Warn().Int64("classId", class.ID).Err(err).Msg("token unavailable for video url")
		} else {
			videoURL := zoom.AppendAccessToken(videoFile.DownloadURL, token)
			result.VideoURL = &videoURL
		}
	}

	return result, nil
}

// FetchAndStore runs Fetch and persists any artifacts found. The stored
// webhook_received flag stays false so a later recording webhook can still
// overwrite with fresher URLs.
func (s *RecordingResolver) FetchAndStore(ctx context.Context, class *model.Class) (RecordingResult, error) {
	result, err := s.Fetch(ctx, class)
	if err != nil {
		return result, err
	}
	if result.Empty() {
		return result, nil
	}

	if err := s.classRepo.UpdateRecording(ctx, class.ID, model.RecordingUpdateParams{
		Transcription:   result.Transcript,
		VideoURL:        result.VideoURL,
		WebhookReceived: false,
	}); err != nil {
		return result, fmt.Errorf("store recording: %w", err)
	}
	return result, nil
}

// findRecordingSet tries each lookup strategy until one yields a listing:
// by session UUID, by meeting id, then by scanning the host's recordings in
// a ±1 day window around the session end.
func (s *RecordingResolver) findRecordingSet(ctx context.Context, class *model.Class) *zoom.RecordingSet {
	if class.ZoomUUID != nil && *class.ZoomUUID != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, config.ZoomRecordingsTimeout)
		set, err := s.zoom.GetRecordingsByUUID(lookupCtx, *class.ZoomUUID)
		cancel()
		if err == nil && len(set.RecordingFiles) > 0 {
			return set
		}
		if err != nil {
			log.Debug().Int64("classId", class.ID).Err(err).Msg("recording lookup by uuid failed")
		}
	}

	if class.ZoomMeetingID != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, config.ZoomRecordingsTimeout)
		set, err := s.zoom.GetRecordingsByMeetingID(lookupCtx, class.ZoomMeetingID)
		cancel()
		if err == nil && len(set.RecordingFiles) > 0 {
			return set
		}
		if err != nil {
			log.Debug().Int64("classId", class.ID).Err(err).Msg("recording lookup by meeting id failed")
		}
	}

	if class.HostEmail == "" {
		return nil
	}
	reference := class.ScheduledStart
	if class.ActualEnd != nil {
		reference = *class.ActualEnd
	}
	lookupCtx, cancel := context.WithTimeout(ctx, config.ZoomRecordingsTimeout)
	sets, err := s.zoom.ListUserRecordings(lookupCtx, class.HostEmail,
		reference.Add(-24*time.Hour), reference.Add(24*time.Hour))
	cancel()
	if err != nil {
		log.Debug().Int64("classId", class.ID).Err(err).Msg("recording lookup by host failed")
		return nil
	}

	for i := range sets {
		if class.ZoomUUID != nil && sets[i].UUID == *class.ZoomUUID {
			return &sets[i]
		}
		if strconv.FormatInt(sets[i].ID, 10) == class.ZoomMeetingID {
			return &sets[i]
		}
	}
	return nil
}
