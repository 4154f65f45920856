package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/aulatrack/class-tracker/internal/database"
	"github.com/aulatrack/class-tracker/internal/model"
	"github.com/aulatrack/class-tracker/internal/repository"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

// Mock class repository
type mockClassRepo struct {
	mock.Mock
}

func (m *mockClassRepo) FindByID(ctx context.Context, id int64) (*model.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Class), args.Error(1)
}

func (m *mockClassRepo) FindByMeetingAndOccurrence(ctx context.Context, meetingID, occurrenceID string) (*model.Class, error) {
	args := m.Called(ctx, meetingID, occurrenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Class), args.Error(1)
}

func (m *mockClassRepo) FindByMeeting(ctx context.Context, meetingID string) ([]model.Class, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Class), args.Error(1)
}

func (m *mockClassRepo) FindLiveByUUID(ctx context.Context, zoomUUID string) (*model.Class, error) {
	args := m.Called(ctx, zoomUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Class), args.Error(1)
}

func (m *mockClassRepo) FindByUUID(ctx context.Context, zoomUUID string, occurrenceID *string) (*model.Class, error) {
	args := m.Called(ctx, zoomUUID, occurrenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Class), args.Error(1)
}

func (m *mockClassRepo) ListAll(ctx context.Context) ([]model.Class, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Class), args.Error(1)
}

func (m *mockClassRepo) UpsertScheduled(ctx context.Context, params model.UpsertScheduledClassParams) (*model.Class, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Class), args.Error(1)
}

func (m *mockClassRepo) CreateLive(ctx context.Context, params model.CreateLiveClassParams) (*model.Class, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Class), args.Error(1)
}

func (m *mockClassRepo) MarkStarted(ctx context.Context, id int64, actualStart time.Time, delayMinutes int, zoomUUID *string) error {
	args := m.Called(ctx, id, actualStart, delayMinutes, zoomUUID)
	return args.Error(0)
}

func (m *mockClassRepo) MarkEnded(ctx context.Context, id int64, actualEnd time.Time) error {
	args := m.Called(ctx, id, actualEnd)
	return args.Error(0)
}

func (m *mockClassRepo) UpdateRecording(ctx context.Context, id int64, params model.RecordingUpdateParams) error {
	args := m.Called(ctx, id, params)
	return args.Error(0)
}

func (m *mockClassRepo) UpdateRecordingByUUID(ctx context.Context, zoomUUID string, params model.RecordingUpdateParams) (int64, error) {
	args := m.Called(ctx, zoomUUID, params)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockClassRepo) UpdateSupervisorURL(ctx context.Context, id int64, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *mockClassRepo) FindMissingRecordings(ctx context.Context, endedAfter, endedBefore time.Time, limit int) ([]model.Class, error) {
	args := m.Called(ctx, endedAfter, endedBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Class), args.Error(1)
}

func (m *mockClassRepo) FindMissingSupervisorURL(ctx context.Context, limit int) ([]model.Class, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Class), args.Error(1)
}

func (m *mockClassRepo) WithTx(tx *sqlx.Tx) repository.ClassRepository {
	return m
}

// Mock Zoom client
type mockZoomClient struct {
	mock.Mock
}

func (m *mockZoomClient) AccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockZoomClient) GetMeeting(ctx context.Context, meetingID string) (*zoom.Meeting, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zoom.Meeting), args.Error(1)
}

func (m *mockZoomClient) GetRecordingsByUUID(ctx context.Context, meetingUUID string) (*zoom.RecordingSet, error) {
	args := m.Called(ctx, meetingUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zoom.RecordingSet), args.Error(1)
}

func (m *mockZoomClient) GetRecordingsByMeetingID(ctx context.Context, meetingID string) (*zoom.RecordingSet, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zoom.RecordingSet), args.Error(1)
}

func (m *mockZoomClient) ListUserRecordings(ctx context.Context, email string, from, to time.Time) ([]zoom.RecordingSet, error) {
	args := m.Called(ctx, email, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zoom.RecordingSet), args.Error(1)
}

func (m *mockZoomClient) DownloadText(ctx context.Context, downloadURL string) (string, error) {
	args := m.Called(ctx, downloadURL)
	return args.String(0), args.Error(1)
}

// fakeTxRunner runs the transaction function directly; repository mocks
// ignore the tx handle.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}
