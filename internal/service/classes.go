package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/model"
	"github.com/aulatrack/class-tracker/internal/repository"
)

// MeetingBuckets groups every tracked occurrence for the dashboard listing.
type MeetingBuckets struct {
	Live         []model.Class `json:"live"`
	Past         []model.Class `json:"past"`
	Scheduled    []model.Class `json:"scheduled"`
	NeverStarted []model.Class `json:"neverStarted"`
}

// ClassDetail is one occurrence plus its derived punctuality.
type ClassDetail struct {
	Class       *model.Class `json:"class"`
	Punctuality Punctuality  `json:"punctuality"`
}

// RecordingView is the recording read-model returned to clients. Fields
// stay null when artifacts are unavailable.
type RecordingView struct {
	Class      *model.Class `json:"meeting"`
	Transcript *string      `json:"transcript"`
	VideoURL   *string      `json:"videoUrl"`
}

// ClassService serves the read API over tracked occurrences, including
// on-demand recording resolution for rows the webhook never reached.
type ClassService struct {
	classRepo repository.ClassRepository
	resolver  *RecordingResolver
	guard     time.Duration

	now func() time.Time
}

func NewClassService(classRepo repository.ClassRepository, resolver *RecordingResolver, guard time.Duration) *ClassService {
	return &ClassService{
		classRepo: classRepo,
		resolver:  resolver,
		guard:     guard,
		now:       time.Now,
	}
}

func (s *ClassService) ListBuckets(ctx context.Context) (*MeetingBuckets, error) {
	all, err := s.classRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	buckets := &MeetingBuckets{
		Live:         []model.Class{},
		Past:         []model.Class{},
		Scheduled:    []model.Class{},
		NeverStarted: []model.Class{},
	}
	for _, c := range all {
		switch {
		case c.Status == model.ClassStatusLive:
			buckets.Live = append(buckets.Live, c)
		case c.Status == model.ClassStatusEnded:
			buckets.Past = append(buckets.Past, c)
		case c.Status == model.ClassStatusScheduled && c.ScheduledStart.After(now):
			buckets.Scheduled = append(buckets.Scheduled, c)
		case c.Status == model.ClassStatusScheduled && c.ActualStart == nil:
			buckets.NeverStarted = append(buckets.NeverStarted, c)
		}
	}
	return buckets, nil
}

// GetDetail returns the occurrence identified by session UUID (and
// optionally occurrence id) with computed punctuality, or nil when no row
// matches.
func (s *ClassService) GetDetail(ctx context.Context, zoomUUID string, occurrenceID *string) (*ClassDetail, error) {
	class, err := s.classRepo.FindByUUID(ctx, zoomUUID, occurrenceID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, nil
	}
	return &ClassDetail{
		Class:       class,
		Punctuality: EvaluatePunctuality(class),
	}, nil
}

// GetRecording returns cached artifacts, or resolves them on demand when
// the row has none. Lookups are skipped within the guard window after the
// session end because Zoom has not processed the recording yet. Resolution
// failures degrade to a view with null fields.
func (s *ClassService) GetRecording(ctx context.Context, zoomUUID string, occurrenceID *string) (*RecordingView, error) {
	class, err := s.classRepo.FindByUUID(ctx, zoomUUID, occurrenceID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, nil
	}

	if class.Transcription != nil || class.VideoURL != nil {
		return &RecordingView{Class: class, Transcript: class.Transcription, VideoURL: class.VideoURL}, nil
	}

	if class.ActualEnd != nil && s.now().Sub(*class.ActualEnd) < s.guard {
		log.Debug().Int64("classId", class.ID).Msg("recording lookup skipped, session ended too recently")
		return &RecordingView{Class: class}, nil
	}

	result, err := s.resolver.FetchAndStore(ctx, class)
	if err != nil {
		log.Warn().Int64("classId", class.ID).Err(err).Msg("on-demand recording resolution failed")
		return &RecordingView{Class: class}, nil
	}

	class.Transcription = result.Transcript
	class.VideoURL = result.VideoURL
	return &RecordingView{Class: class, Transcript: result.Transcript, VideoURL: result.VideoURL}, nil
}
