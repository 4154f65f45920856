package zoom

import (
	"encoding/json"
)

// Webhook event types handled by the tracker.
const (
	EventURLValidation       = "endpoint.url_validation"
	EventMeetingCreated      = "meeting.created"
	EventMeetingStarted      = "meeting.started"
	EventMeetingEnded        = "meeting.ended"
	EventTranscriptCompleted = "recording.transcript_completed"
	EventRecordingCompleted  = "recording.completed"
)

// Event is the envelope of every Zoom webhook delivery.
type Event struct {
	Event   string       `json:"event"`
	EventTS int64        `json:"event_ts"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	AccountID  string      `json:"account_id"`
	PlainToken string      `json:"plainToken"`
	Object     EventObject `json:"object"`
}

// EventObject carries the meeting fields shared by lifecycle and recording
// events. The meeting id is numeric on the wire; json.Number keeps it exact
// while the persisted series identifier is a string.
type EventObject struct {
	ID             json.Number     `json:"id"`
	UUID           string          `json:"uuid"`
	HostID         string          `json:"host_id"`
	HostEmail      string          `json:"host_email"`
	Topic          string          `json:"topic"`
	Type           int             `json:"type"`
	OccurrenceID   string          `json:"occurrence_id"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	Duration       int             `json:"duration"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

// MeetingID returns the series identifier as a string, or "" when absent.
func (o EventObject) MeetingID() string {
	return o.ID.String()
}
