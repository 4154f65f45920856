package zoom

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Meeting type constants for the Zoom API
const (
	MeetingTypeInstant              = 1
	MeetingTypeScheduled            = 2
	MeetingTypeRecurringNoFixedTime = 3
	MeetingTypeRecurringFixedTime   = 8
)

// Recurrence type constants for the Zoom API
const (
	RecurrenceTypeDaily   = 1
	RecurrenceTypeWeekly  = 2
	RecurrenceTypeMonthly = 3
)

// Meeting is the detail payload of GET /meetings/{id}.
type Meeting struct {
	ID          int64        `json:"id"`
	UUID        string       `json:"uuid"`
	HostID      string       `json:"host_id"`
	HostEmail   string       `json:"host_email"`
	Topic       string       `json:"topic"`
	Type        int          `json:"type"`
	StartTime   string       `json:"start_time"`
	Duration    int          `json:"duration"`
	Timezone    string       `json:"timezone"`
	StartURL    string       `json:"start_url"`
	JoinURL     string       `json:"join_url"`
	Occurrences []Occurrence `json:"occurrences"`
	Recurrence  *Recurrence  `json:"recurrence"`
}

// Occurrence is one concrete instance of a recurring meeting.
type Occurrence struct {
	OccurrenceID string `json:"occurrence_id"`
	StartTime    string `json:"start_time"`
	Duration     int    `json:"duration"`
	Status       string `json:"status"`
}

// Recurrence holds the recurrence settings of a recurring meeting.
type Recurrence struct {
	Type           int    `json:"type"`
	RepeatInterval int    `json:"repeat_interval"`
	WeeklyDays     string `json:"weekly_days"`
	MonthlyDay     int    `json:"monthly_day"`
	EndTimes       int    `json:"end_times"`
	EndDateTime    string `json:"end_date_time"`
}

// GetMeeting fetches full meeting detail, including the occurrence list for
// recurring meetings.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	var meeting Meeting
	if err := c.get(ctx, "/meetings/"+url.PathEscape(meetingID), nil, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ParseStartTime normalizes a Zoom start_time string to a UTC instant. Zoom
// omits the trailing Z on some webhook payloads even though the value is
// always UTC.
func ParseStartTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty start time")
	}
	if !strings.HasSuffix(s, "Z") {
		s += "Z"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", s, err)
	}
	return t.UTC(), nil
}
