package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulatrack/class-tracker/internal/zoom"
)

func TestExpandOccurrences(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("weekly recurrence with end count", func(t *testing.T) {
		meeting := &zoom.Meeting{
			StartTime: "2026-03-02T09:00:00Z", // a Monday
			Duration:  45,
			Recurrence: &zoom.Recurrence{
				Type:           zoom.RecurrenceTypeWeekly,
				RepeatInterval: 1,
				WeeklyDays:     "2", // Monday
				EndTimes:       4,
			},
		}

		occs := ExpandOccurrences(meeting, now)

		require.Len(t, occs, 4)
		first, err := zoom.ParseStartTime(occs[0].StartTime)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), first)
		second, err := zoom.ParseStartTime(occs[1].StartTime)
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, second.Sub(first))
		assert.Equal(t, 45, occs[0].Duration)
		// occurrence ids follow the epoch-millisecond convention
		assert.Equal(t, strconv.FormatInt(first.UnixMilli(), 10), occs[0].OccurrenceID)
	})

	t.Run("daily recurrence bounded by end date", func(t *testing.T) {
		meeting := &zoom.Meeting{
			StartTime: "2026-03-02T09:00:00Z",
			Duration:  30,
			Recurrence: &zoom.Recurrence{
				Type:           zoom.RecurrenceTypeDaily,
				RepeatInterval: 1,
				EndDateTime:    "2026-03-05T09:00:00Z",
			},
		}

		occs := ExpandOccurrences(meeting, now)

		assert.Len(t, occs, 4)
	})

	t.Run("monthly recurrence on a fixed day", func(t *testing.T) {
		meeting := &zoom.Meeting{
			StartTime: "2026-03-15T17:00:00Z",
			Duration:  60,
			Recurrence: &zoom.Recurrence{
				Type:           zoom.RecurrenceTypeMonthly,
				RepeatInterval: 1,
				MonthlyDay:     15,
				EndTimes:       3,
			},
		}

		occs := ExpandOccurrences(meeting, now)

		require.Len(t, occs, 3)
		second, err := zoom.ParseStartTime(occs[1].StartTime)
		require.NoError(t, err)
		assert.Equal(t, 15, second.Day())
		assert.Equal(t, time.April, second.Month())
	})

	t.Run("open-ended recurrence is capped", func(t *testing.T) {
		meeting := &zoom.Meeting{
			StartTime: "2026-03-02T09:00:00Z",
			Duration:  60,
			Recurrence: &zoom.Recurrence{
				Type:           zoom.RecurrenceTypeDaily,
				RepeatInterval: 1,
			},
		}

		occs := ExpandOccurrences(meeting, now)

		assert.Len(t, occs, maxExpandedOccurrences)
	})

	t.Run("no recurrence settings yields nothing", func(t *testing.T) {
		assert.Nil(t, ExpandOccurrences(&zoom.Meeting{StartTime: "2026-03-02T09:00:00Z"}, now))
	})

	t.Run("unparseable start yields nothing", func(t *testing.T) {
		meeting := &zoom.Meeting{
			StartTime:  "never",
			Recurrence: &zoom.Recurrence{Type: zoom.RecurrenceTypeDaily},
		}
		assert.Nil(t, ExpandOccurrences(meeting, now))
	})
}

func TestParseWeeklyDays(t *testing.T) {
	t.Run("maps zoom weekday numbers", func(t *testing.T) {
		days := parseWeeklyDays("1,3,7")
		require.Len(t, days, 3)
	})

	t.Run("ignores unknown tokens", func(t *testing.T) {
		assert.Len(t, parseWeeklyDays("2, 9, x"), 1)
	})
}
