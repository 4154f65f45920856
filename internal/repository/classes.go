package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aulatrack/class-tracker/internal/model"
)

type ClassRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Class, error)
	FindByMeetingAndOccurrence(ctx context.Context, meetingID, occurrenceID string) (*model.Class, error)
	FindByMeeting(ctx context.Context, meetingID string) ([]model.Class, error)
	FindLiveByUUID(ctx context.Context, zoomUUID string) (*model.Class, error)
	FindByUUID(ctx context.Context, zoomUUID string, occurrenceID *string) (*model.Class, error)
	ListAll(ctx context.Context) ([]model.Class, error)
	UpsertScheduled(ctx context.Context, params model.UpsertScheduledClassParams) (*model.Class, error)
	CreateLive(ctx context.Context, params model.CreateLiveClassParams) (*model.Class, error)
	MarkStarted(ctx context.Context, id int64, actualStart time.Time, delayMinutes int, zoomUUID *string) error
	MarkEnded(ctx context.Context, id int64, actualEnd time.Time) error
	UpdateRecording(ctx context.Context, id int64, params model.RecordingUpdateParams) error
	UpdateRecordingByUUID(ctx context.Context, zoomUUID string, params model.RecordingUpdateParams) (int64, error)
	UpdateSupervisorURL(ctx context.Context, id int64, url string) error
	FindMissingRecordings(ctx context.Context, endedAfter, endedBefore time.Time, limit int) ([]model.Class, error)
	FindMissingSupervisorURL(ctx context.Context, limit int) ([]model.Class, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ClassRepository
}

// classDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type classDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type classRepo struct {
	db classDB
}

func NewClassRepository(db *sqlx.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) WithTx(tx *sqlx.Tx) ClassRepository {
	return &classRepo{db: tx}
}

func (r *classRepo) FindByID(ctx context.Context, id int64) (*model.Class, error) {
	var class model.Class
	err := r.db.GetContext(ctx, &class, `SELECT * FROM classes WHERE id = $1`, id)
	return HandleNotFound(&class, err)
}

func (r *classRepo) FindByMeetingAndOccurrence(ctx context.Context, meetingID, occurrenceID string) (*model.Class, error) {
	var class model.Class
	err := r.db.GetContext(ctx, &class, `
		SELECT * FROM classes
		WHERE zoom_meeting_id = $1 AND occurrence_id = $2
	`, meetingID, occurrenceID)
	return HandleNotFound(&class, err)
}

func (r *classRepo) FindByMeeting(ctx context.Context, meetingID string) ([]model.Class, error) {
	classes := []model.Class{}
	err := r.db.SelectContext(ctx, &classes, `
		SELECT * FROM classes
		WHERE zoom_meeting_id = $1
		ORDER BY scheduled_start ASC
	`, meetingID)
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepo) FindLiveByUUID(ctx context.Context, zoomUUID string) (*model.Class, error) {
	var class model.Class
	err := r.db.GetContext(ctx, &class, `
		SELECT * FROM classes
		WHERE zoom_uuid = $1 AND status = 'live'
		ORDER BY scheduled_start ASC
		LIMIT 1
	`, zoomUUID)
	return HandleNotFound(&class, err)
}

func (r *classRepo) FindByUUID(ctx context.Context, zoomUUID string, occurrenceID *string) (*model.Class, error) {
	var class model.Class
	var err error
	if occurrenceID != nil {
		err = r.db.GetContext(ctx, &class, `
			SELECT * FROM classes
			WHERE zoom_uuid = $1 AND occurrence_id = $2
			ORDER BY scheduled_start ASC
			LIMIT 1
		`, zoomUUID, *occurrenceID)
	} else {
		err = r.db.GetContext(ctx, &class, `
			SELECT * FROM classes
			WHERE zoom_uuid = $1
			ORDER BY scheduled_start ASC
			LIMIT 1
		`, zoomUUID)
	}
	return HandleNotFound(&class, err)
}

func (r *classRepo) ListAll(ctx context.Context) ([]model.Class, error) {
	classes := []model.Class{}
	err := r.db.SelectContext(ctx, &classes, `
		SELECT * FROM classes
		ORDER BY scheduled_start DESC
	`)
	if err != nil {
		return nil, err
	}
	return classes, nil
}

// UpsertScheduled inserts or refreshes one scheduled occurrence. The
// conflict target relies on the NULLS NOT DISTINCT unique index so a null
// occurrence_id still collides with itself. actual_start, actual_end,
// delay_minutes and status are deliberately left alone on conflict: a
// re-delivered created event must not regress a row that already went live.
func (r *classRepo) UpsertScheduled(ctx context.Context, params model.UpsertScheduledClassParams) (*model.Class, error) {
	var class model.Class
	err := r.db.GetContext(ctx, &class, `
		INSERT INTO classes (
			zoom_meeting_id, occurrence_id, zoom_uuid, topic, host_email,
			scheduled_start, duration_minutes, status, supervisor_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled', $8)
		ON CONFLICT (zoom_meeting_id, occurrence_id) DO UPDATE SET
			topic = EXCLUDED.topic,
			host_email = EXCLUDED.host_email,
			scheduled_start = EXCLUDED.scheduled_start,
			duration_minutes = EXCLUDED.duration_minutes,
			supervisor_url = COALESCE(EXCLUDED.supervisor_url, classes.supervisor_url),
			updated_at = NOW()
		RETURNING *
	`, params.ZoomMeetingID, params.OccurrenceID, params.ZoomUUID, params.Topic,
		params.HostEmail, params.ScheduledStart, params.DurationMinutes, params.SupervisorURL)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) CreateLive(ctx context.Context, params model.CreateLiveClassParams) (*model.Class, error) {
	var class model.Class
	err := r.db.GetContext(ctx, &class, `
		INSERT INTO classes (
			zoom_meeting_id, occurrence_id, zoom_uuid, topic, host_email,
			scheduled_start, duration_minutes, actual_start, status, delay_minutes
		)
		VALUES ($1, $2, $3, $4, $5, $6, 60, $6, 'live', 0)
		ON CONFLICT (zoom_meeting_id, occurrence_id) DO UPDATE SET
			zoom_uuid = EXCLUDED.zoom_uuid,
			actual_start = COALESCE(classes.actual_start, EXCLUDED.actual_start),
			status = CASE WHEN classes.status = 'ended' THEN classes.status ELSE 'live' END,
			updated_at = NOW()
		RETURNING *
	`, params.ZoomMeetingID, params.OccurrenceID, params.ZoomUUID, params.Topic,
		params.HostEmail, params.ActualStart)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// MarkStarted promotes a scheduled row to live. actual_start and
// delay_minutes are set exactly once; a duplicate started event leaves the
// original values in place.
func (r *classRepo) MarkStarted(ctx context.Context, id int64, actualStart time.Time, delayMinutes int, zoomUUID *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE classes SET
			actual_start = $2,
			delay_minutes = $3,
			zoom_uuid = COALESCE($4, zoom_uuid),
			status = 'live',
			updated_at = NOW()
		WHERE id = $1 AND actual_start IS NULL AND status = 'scheduled'
	`, id, actualStart, delayMinutes, zoomUUID)
	return err
}

// MarkEnded closes a row. Status never regresses and actual_end is set
// exactly once.
func (r *classRepo) MarkEnded(ctx context.Context, id int64, actualEnd time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE classes SET
			actual_end = COALESCE(actual_end, $2),
			status = 'ended',
			updated_at = NOW()
		WHERE id = $1 AND status != 'ended'
	`, id, actualEnd)
	return err
}

func (r *classRepo) UpdateRecording(ctx context.Context, id int64, params model.RecordingUpdateParams) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE classes SET
			transcription = COALESCE($2, transcription),
			video_url = COALESCE($3, video_url),
			webhook_received = $4,
			updated_at = NOW()
		WHERE id = $1
	`, id, params.Transcription, params.VideoURL, params.WebhookReceived)
	return err
}

func (r *classRepo) UpdateRecordingByUUID(ctx context.Context, zoomUUID string, params model.RecordingUpdateParams) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE classes SET
			transcription = COALESCE($2, transcription),
			video_url = COALESCE($3, video_url),
			webhook_received = $4,
			updated_at = NOW()
		WHERE zoom_uuid = $1
	`, zoomUUID, params.Transcription, params.VideoURL, params.WebhookReceived)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *classRepo) UpdateSupervisorURL(ctx context.Context, id int64, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE classes SET
			supervisor_url = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, url)
	return err
}

func (r *classRepo) FindMissingRecordings(ctx context.Context, endedAfter, endedBefore time.Time, limit int) ([]model.Class, error) {
	classes := []model.Class{}
	err := r.db.SelectContext(ctx, &classes, `
		SELECT * FROM classes
		WHERE status = 'ended'
		AND (transcription IS NULL OR video_url IS NULL)
		AND webhook_received = false
		AND actual_end >= $1 AND actual_end <= $2
		ORDER BY actual_end DESC
		LIMIT $3
	`, endedAfter, endedBefore, limit)
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepo) FindMissingSupervisorURL(ctx context.Context, limit int) ([]model.Class, error) {
	classes := []model.Class{}
	err := r.db.SelectContext(ctx, &classes, `
		SELECT * FROM classes
		WHERE status IN ('live', 'scheduled')
		AND supervisor_url IS NULL
		ORDER BY scheduled_start DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return classes, nil
}
