package model

import (
	"time"
)

// Class is one persisted occurrence of a (possibly recurring) Zoom class.
// The uniqueness key is (zoom_meeting_id, occurrence_id); occurrence_id is
// null for non-recurring meetings.
type Class struct {
	ID              int64       `db:"id" json:"id"`
	ZoomMeetingID   string      `db:"zoom_meeting_id" json:"zoomMeetingId"`
	OccurrenceID    *string     `db:"occurrence_id" json:"occurrenceId,omitempty"`
	ZoomUUID        *string     `db:"zoom_uuid" json:"zoomUuid,omitempty"`
	Topic           string      `db:"topic" json:"topic"`
	HostEmail       string      `db:"host_email" json:"hostEmail"`
	ScheduledStart  time.Time   `db:"scheduled_start" json:"scheduledStart"`
	DurationMinutes int         `db:"duration_minutes" json:"durationMinutes"`
	ActualStart     *time.Time  `db:"actual_start" json:"actualStart,omitempty"`
	ActualEnd       *time.Time  `db:"actual_end" json:"actualEnd,omitempty"`
	Status          ClassStatus `db:"status" json:"status"`
	DelayMinutes    *int        `db:"delay_minutes" json:"delayMinutes,omitempty"`
	Transcription   *string     `db:"transcription" json:"-"`
	VideoURL        *string     `db:"video_url" json:"videoUrl,omitempty"`
	SupervisorURL   *string     `db:"supervisor_url" json:"supervisorUrl,omitempty"`
	WebhookReceived bool        `db:"webhook_received" json:"webhookReceived"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

// Pending reports whether the occurrence has been announced but never
// started. Pending rows are the preferred matching candidates so that a
// live or ended row is never rebound to a new start event.
func (c *Class) Pending() bool {
	return c.Status == ClassStatusScheduled && c.ActualStart == nil
}

// HasRecording reports whether both recording artifacts are already stored.
func (c *Class) HasRecording() bool {
	return c.Transcription != nil && c.VideoURL != nil
}

type UpsertScheduledClassParams struct {
	ZoomMeetingID   string
	OccurrenceID    *string
	ZoomUUID        *string
	Topic           string
	HostEmail       string
	ScheduledStart  time.Time
	DurationMinutes int
	SupervisorURL   *string
}

// CreateLiveClassParams inserts a row for a session that started without a
// prior created event. Scheduled start defaults to the actual start.
type CreateLiveClassParams struct {
	ZoomMeetingID string
	OccurrenceID  *string
	ZoomUUID      *string
	Topic         string
	HostEmail     string
	ActualStart   time.Time
}

type RecordingUpdateParams struct {
	Transcription   *string
	VideoURL        *string
	WebhookReceived bool
}
