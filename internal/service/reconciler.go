package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/config"
	"github.com/aulatrack/class-tracker/internal/database"
	"github.com/aulatrack/class-tracker/internal/model"
	"github.com/aulatrack/class-tracker/internal/repository"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

// TxRunner runs a function inside a database transaction. Satisfied by
// *database.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// Reconciler consumes Zoom lifecycle events and converges the classes
// table to one correct row per real-world occurrence. Every handler is
// idempotent: webhooks are delivered at least once and may arrive out of
// order across sessions.
type Reconciler struct {
	db        TxRunner
	classRepo repository.ClassRepository
	resolver  OccurrenceResolver
	zoom      zoom.ClientAPI

	now func() time.Time
}

func NewReconciler(db TxRunner, classRepo repository.ClassRepository, resolver OccurrenceResolver, zoomClient zoom.ClientAPI) *Reconciler {
	return &Reconciler{
		db:        db,
		classRepo: classRepo,
		resolver:  resolver,
		zoom:      zoomClient,
		now:       time.Now,
	}
}

// Dispatch routes a webhook event to its handler. Unrecognized events are
// acknowledged without action.
func (s *Reconciler) Dispatch(ctx context.Context, event zoom.Event) error {
	switch event.Event {
	case zoom.EventMeetingCreated:
		return s.HandleCreated(ctx, event.Payload.Object)
	case zoom.EventMeetingStarted:
		return s.HandleStarted(ctx, event.Payload.Object)
	case zoom.EventMeetingEnded:
		return s.HandleEnded(ctx, event.Payload.Object)
	case zoom.EventTranscriptCompleted, zoom.EventRecordingCompleted:
		return s.HandleRecordingReady(ctx, event.Payload.Object)
	default:
		log.Debug().Str("event", event.Event).Msg("ignoring unhandled webhook event")
		return nil
	}
}

// HandleCreated fetches full meeting detail and upserts one scheduled row
// per declared occurrence, or a single synthetic occurrence for
// non-recurring meetings. Occurrences with unparseable start times are
// skipped. Re-delivery overwrites the same fields and never regresses a
// row that already went live.
func (s *Reconciler) HandleCreated(ctx context.Context, obj zoom.EventObject) error {
	meetingID := obj.MeetingID()
	if meetingID == "" {
		return fmt.Errorf("created event without meeting id")
	}

	detailCtx, cancel := context.WithTimeout(ctx, config.ZoomDetailTimeout)
	defer cancel()
	detail, err := s.zoom.GetMeeting(detailCtx, meetingID)
	if err != nil {
		return fmt.Errorf("fetch meeting detail: %w", err)
	}

	occurrences := detail.Occurrences
	if len(occurrences) == 0 && detail.Recurrence != nil {
		occurrences = ExpandOccurrences(detail, s.now())
		if len(occurrences) > 0 {
			log.Info().
				Str("meetingId", meetingID).
				Int("count", len(occurrences)).
				Msg("expanded occurrences from recurrence settings")
		}
	}
	if len(occurrences) == 0 {
		occurrences = []zoom.Occurrence{{
			StartTime: detail.StartTime,
			Duration:  detail.Duration,
		}}
	}

	var supervisorURL *string
	if detail.StartURL != "" {
		supervisorURL = &detail.StartURL
	}
	var zoomUUID *string
	if detail.UUID != "" {
		zoomUUID = &detail.UUID
	}

	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.classRepo.WithTx(tx)
		for _, occ := range occurrences {
			startTime := occ.StartTime
			if startTime == "" {
				startTime = detail.StartTime
			}
			scheduledStart, err := zoom.ParseStartTime(startTime)
			if err != nil {
				log.Warn().
					Str("meetingId", meetingID).
					Str("occurrenceId", occ.OccurrenceID).
					Err(err).
					Msg("skipping occurrence with unparseable start time")
				continue
			}

			duration := occ.Duration
			if duration == 0 {
				duration = detail.Duration
			}
			if duration == 0 {
				duration = 60
			}

			var occurrenceID *string
			if occ.OccurrenceID != "" {
				id := occ.OccurrenceID
				occurrenceID = &id
			}

			if _, err := repo.UpsertScheduled(ctx, model.UpsertScheduledClassParams{
				ZoomMeetingID:   meetingID,
				OccurrenceID:    occurrenceID,
				ZoomUUID:        zoomUUID,
				Topic:           topicOrDefault(detail.Topic),
				HostEmail:       hostOrDefault(detail.HostEmail, detail.HostID),
				ScheduledStart:  scheduledStart,
				DurationMinutes: duration,
				SupervisorURL:   supervisorURL,
			}); err != nil {
				return fmt.Errorf("upsert occurrence: %w", err)
			}
		}
		return nil
	})
}

// HandleStarted promotes the best-matching occurrence to live, recording
// the start delay once. A session that was never announced gets a fresh
// live row with its scheduled start defaulted to the actual start.
func (s *Reconciler) HandleStarted(ctx context.Context, obj zoom.EventObject) error {
	meetingID := obj.MeetingID()
	if meetingID == "" {
		return fmt.Errorf("started event without meeting id")
	}

	actualStart, err := zoom.ParseStartTime(obj.StartTime)
	if err != nil {
		log.Warn().Str("meetingId", meetingID).Err(err).
			Msg("started event has unparseable start time, using current time")
		actualStart = s.now().UTC()
	}

	existing, err := s.resolver.Resolve(ctx, meetingID, obj.OccurrenceID, actualStart)
	if err != nil {
		return fmt.Errorf("resolve occurrence: %w", err)
	}

	if existing == nil {
		var occurrenceID, zoomUUID *string
		if obj.OccurrenceID != "" {
			id := obj.OccurrenceID
			occurrenceID = &id
		}
		if obj.UUID != "" {
			u := obj.UUID
			zoomUUID = &u
		}
		class, err := s.classRepo.CreateLive(ctx, model.CreateLiveClassParams{
			ZoomMeetingID: meetingID,
			OccurrenceID:  occurrenceID,
			ZoomUUID:      zoomUUID,
			Topic:         topicOrDefault(obj.Topic),
			HostEmail:     hostOrDefault(obj.HostEmail, obj.HostID),
			ActualStart:   actualStart,
		})
		if err != nil {
			return fmt.Errorf("create unannounced live class: %w", err)
		}
		log.Info().
			Str("meetingId", meetingID).
			Int64("classId", class.ID).
			Msg("started event for unannounced session, created live row")
		return nil
	}

	delay := RoundToMinutes(actualStart.Sub(existing.ScheduledStart))
	var zoomUUID *string
	if obj.UUID != "" {
		u := obj.UUID
		zoomUUID = &u
	}
	if err := s.classRepo.MarkStarted(ctx, existing.ID, actualStart, delay, zoomUUID); err != nil {
		return fmt.Errorf("mark started: %w", err)
	}

	log.Info().
		Str("meetingId", meetingID).
		Int64("classId", existing.ID).
		Int("delayMinutes", delay).
		Msg("class started")
	return nil
}

// HandleEnded closes the session's row. Lookup prefers the session UUID
// with live status, then falls back to time-proximity matching. A session
// with no matching row at all is acknowledged as a no-op so the provider
// does not keep retrying.
func (s *Reconciler) HandleEnded(ctx context.Context, obj zoom.EventObject) error {
	now := s.now().UTC()

	var existing *model.Class
	var err error
	if obj.UUID != "" {
		existing, err = s.classRepo.FindLiveByUUID(ctx, obj.UUID)
		if err != nil {
			return fmt.Errorf("find live by uuid: %w", err)
		}
	}
	if existing == nil {
		existing, err = s.resolver.Resolve(ctx, obj.MeetingID(), obj.OccurrenceID, now)
		if err != nil {
			return fmt.Errorf("resolve occurrence: %w", err)
		}
	}
	if existing == nil {
		log.Warn().
			Str("meetingId", obj.MeetingID()).
			Str("uuid", obj.UUID).
			Msg("ended event matched no class, ignoring")
		return nil
	}

	if err := s.classRepo.MarkEnded(ctx, existing.ID, now); err != nil {
		return fmt.Errorf("mark ended: %w", err)
	}

	log.Info().
		Str("meetingId", obj.MeetingID()).
		Int64("classId", existing.ID).
		Msg("class ended")
	return nil
}

// HandleRecordingReady stores transcript text and video reference for
// every row sharing the session UUID. A failed transcript download leaves
// that field unset without blocking the video reference.
func (s *Reconciler) HandleRecordingReady(ctx context.Context, obj zoom.EventObject) error {
	if obj.UUID == "" {
		return fmt.Errorf("recording event without meeting uuid")
	}

	params := model.RecordingUpdateParams{WebhookReceived: true}

	if transcriptFile := zoom.SelectTranscriptFile(obj.RecordingFiles); transcriptFile != nil && transcriptFile.DownloadURL != "" {
		downloadCtx, cancel := context.WithTimeout(ctx, config.ZoomDownloadTimeout)
		text, err := s.zoom.DownloadText(downloadCtx, transcriptFile.DownloadURL)
		cancel()
		if err != nil {
			log.Warn().Str("uuid", obj.UUID).Err(err).Msg("transcript download failed")
		} else {
			params.Transcription = &text
		}
	}

	if videoFile := zoom.SelectVideoFile(obj.RecordingFiles); videoFile != nil && videoFile.DownloadURL != "" {
		token, err := s.zoom.AccessToken(ctx)
		if err != nil {
			log.Warn().Str("uuid", obj.UUID).Err(err).Msg("token unavailable for video url")
		} else {
			videoURL := zoom.AppendAccessToken(videoFile.DownloadURL, token)
			params.VideoURL = &videoURL
		}
	}

	rows, err := s.classRepo.UpdateRecordingByUUID(ctx, obj.UUID, params)
	if err != nil {
		return fmt.Errorf("update recording: %w", err)
	}
	if rows == 0 {
		log.Warn().Str("uuid", obj.UUID).Msg("recording event matched no class")
		return nil
	}

	log.Info().
		Str("uuid", obj.UUID).
		Int64("rows", rows).
		Bool("transcript", params.Transcription != nil).
		Bool("video", params.VideoURL != nil).
		Msg("recording stored from webhook")
	return nil
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return "Untitled class"
	}
	return topic
}

func hostOrDefault(email, hostID string) string {
	if email != "" {
		return email
	}
	if hostID != "" {
		return hostID
	}
	return "unknown"
}
