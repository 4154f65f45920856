package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/aulatrack/class-tracker/internal/zoom"
)

const (
	// maxExpandedOccurrences bounds how many rows a single created event can
	// produce when the occurrence list has to be synthesized.
	maxExpandedOccurrences = 30
	// expansionHorizon bounds open-ended recurrences with no end count/date.
	expansionHorizon = 90 * 24 * time.Hour
)

// ExpandOccurrences synthesizes the occurrence list for a recurring meeting
// whose detail payload carries recurrence settings but no occurrences (Zoom
// omits the list for recurring meetings with no fixed time). Occurrence ids
// follow Zoom's convention of the start instant in epoch milliseconds.
func ExpandOccurrences(meeting *zoom.Meeting, now time.Time) []zoom.Occurrence {
	if meeting.Recurrence == nil {
		return nil
	}

	start, err := zoom.ParseStartTime(meeting.StartTime)
	if err != nil {
		return nil
	}

	option := rrule.ROption{
		Dtstart:  start,
		Interval: meeting.Recurrence.RepeatInterval,
	}
	if option.Interval == 0 {
		option.Interval = 1
	}

	switch meeting.Recurrence.Type {
	case zoom.RecurrenceTypeDaily:
		option.Freq = rrule.DAILY
	case zoom.RecurrenceTypeWeekly:
		option.Freq = rrule.WEEKLY
		option.Byweekday = parseWeeklyDays(meeting.Recurrence.WeeklyDays)
	case zoom.RecurrenceTypeMonthly:
		option.Freq = rrule.MONTHLY
		if meeting.Recurrence.MonthlyDay > 0 {
			option.Bymonthday = []int{meeting.Recurrence.MonthlyDay}
		}
	default:
		return nil
	}

	bounded := false
	if meeting.Recurrence.EndTimes > 0 {
		option.Count = meeting.Recurrence.EndTimes
		bounded = true
	}
	if meeting.Recurrence.EndDateTime != "" {
		if until, err := zoom.ParseStartTime(meeting.Recurrence.EndDateTime); err == nil {
			option.Until = until
			bounded = true
		}
	}

	rule, err := rrule.NewRRule(option)
	if err != nil {
		return nil
	}

	var starts []time.Time
	if bounded {
		starts = rule.All()
	} else {
		starts = rule.Between(start, now.Add(expansionHorizon), true)
	}
	if len(starts) > maxExpandedOccurrences {
		starts = starts[:maxExpandedOccurrences]
	}

	occurrences := make([]zoom.Occurrence, 0, len(starts))
	for _, t := range starts {
		occurrences = append(occurrences, zoom.Occurrence{
			OccurrenceID: strconv.FormatInt(t.UnixMilli(), 10),
			StartTime:    t.UTC().Format(time.RFC3339),
			Duration:     meeting.Duration,
		})
	}
	return occurrences
}

// parseWeeklyDays converts Zoom's comma-separated weekday list (1=Sunday …
// 7=Saturday) to rrule weekdays.
func parseWeeklyDays(days string) []rrule.Weekday {
	mapping := map[string]rrule.Weekday{
		"1": rrule.SU, "2": rrule.MO, "3": rrule.TU, "4": rrule.WE,
		"5": rrule.TH, "6": rrule.FR, "7": rrule.SA,
	}
	var out []rrule.Weekday
	for _, d := range strings.Split(days, ",") {
		if wd, ok := mapping[strings.TrimSpace(d)]; ok {
			out = append(out, wd)
		}
	}
	return out
}
