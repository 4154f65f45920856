package zoom

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// RecordingSet is the recording listing for one meeting instance, returned
// by GET /meetings/{id}/recordings and embedded per meeting in the user
// recordings listing.
type RecordingSet struct {
	UUID           string          `json:"uuid"`
	ID             int64           `json:"id"`
	Topic          string          `json:"topic"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

type RecordingFile struct {
	ID            string `json:"id"`
	FileType      string `json:"file_type"`
	FileExtension string `json:"file_extension"`
	RecordingType string `json:"recording_type"`
	DownloadURL   string `json:"download_url"`
	Status        string `json:"status"`
}

type userRecordingsResponse struct {
	Meetings []RecordingSet `json:"meetings"`
}

// GetRecordingsByUUID looks up recordings by meeting UUID. UUIDs can contain
// '/' and '//' so Zoom requires them double-URL-encoded in the path.
func (c *Client) GetRecordingsByUUID(ctx context.Context, meetingUUID string) (*RecordingSet, error) {
	encoded := url.QueryEscape(url.QueryEscape(meetingUUID))
	var set RecordingSet
	if err := c.get(ctx, "/meetings/"+encoded+"/recordings", nil, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func (c *Client) GetRecordingsByMeetingID(ctx context.Context, meetingID string) (*RecordingSet, error) {
	var set RecordingSet
	if err := c.get(ctx, "/meetings/"+url.PathEscape(meetingID)+"/recordings", nil, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// ListUserRecordings lists all recordings for a host within a date window.
func (c *Client) ListUserRecordings(ctx context.Context, email string, from, to time.Time) ([]RecordingSet, error) {
	query := url.Values{
		"from": []string{from.Format("2006-01-02")},
		"to":   []string{to.Format("2006-01-02")},
	}
	var resp userRecordingsResponse
	if err := c.get(ctx, "/users/"+url.PathEscape(email)+"/recordings", query, &resp); err != nil {
		return nil, err
	}
	return resp.Meetings, nil
}

// SelectTranscriptFile picks the best transcript artifact: an explicit
// TRANSCRIPT file type, then the audio_transcript recording type, then any
// file with a vtt extension.
func SelectTranscriptFile(files []RecordingFile) *RecordingFile {
	for _, match := range []func(RecordingFile) bool{
		func(f RecordingFile) bool { return f.FileType == "TRANSCRIPT" },
		func(f RecordingFile) bool { return f.RecordingType == "audio_transcript" },
		func(f RecordingFile) bool { return strings.EqualFold(f.FileExtension, "vtt") },
	} {
		for i := range files {
			if match(files[i]) {
				return &files[i]
			}
		}
	}
	return nil
}

// SelectVideoFile picks the best MP4: shared-screen variants first, then
// active speaker, then any MP4. Transcript files never qualify.
func SelectVideoFile(files []RecordingFile) *RecordingFile {
	for _, match := range []func(RecordingFile) bool{
		func(f RecordingFile) bool {
			return f.FileType == "MP4" && strings.Contains(f.RecordingType, "shared_screen")
		},
		func(f RecordingFile) bool {
			return f.FileType == "MP4" && f.RecordingType == "active_speaker"
		},
		func(f RecordingFile) bool { return f.FileType == "MP4" },
	} {
		for i := range files {
			if match(files[i]) {
				return &files[i]
			}
		}
	}
	return nil
}
