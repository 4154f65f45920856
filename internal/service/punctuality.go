package service

import (
	"fmt"
	"math"
	"time"

	"github.com/aulatrack/class-tracker/internal/model"
)

type PunctualityStatus string

const (
	PunctualityEarly   PunctualityStatus = "early"
	PunctualityLate    PunctualityStatus = "late"
	PunctualityOnTime  PunctualityStatus = "on_time"
	PunctualityUnknown PunctualityStatus = "unknown"
)

// Verdict classifies one edge (start or end) of an occurrence.
type Verdict struct {
	Status  PunctualityStatus `json:"status"`
	Minutes *int              `json:"minutes"`
	Message string            `json:"message"`
}

type Punctuality struct {
	Start Verdict `json:"start"`
	End   Verdict `json:"end"`
}

// EvaluatePunctuality derives start/end timeliness from persisted
// timestamps. It is pure: missing inputs yield an unknown verdict, never an
// error. The start verdict comes straight from the stored delay so it
// always agrees with what was computed when the session went live.
func EvaluatePunctuality(class *model.Class) Punctuality {
	result := Punctuality{
		Start: unknownVerdict(),
		End:   unknownVerdict(),
	}

	if class.DelayMinutes != nil {
		result.Start = verdictFromMinutes(*class.DelayMinutes, "Started")
	}

	if !class.ScheduledStart.IsZero() && class.DurationMinutes > 0 && class.ActualEnd != nil {
		scheduledEnd := class.ScheduledStart.Add(time.Duration(class.DurationMinutes) * time.Minute)
		diff := RoundToMinutes(class.ActualEnd.Sub(scheduledEnd))
		result.End = verdictFromMinutes(diff, "Ended")
	}

	return result
}

// RoundToMinutes converts a duration to whole minutes, rounding half away
// from zero so a 30-second overshoot counts as one minute late.
func RoundToMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

func verdictFromMinutes(minutes int, edge string) Verdict {
	switch {
	case minutes > 0:
		return Verdict{
			Status:  PunctualityLate,
			Minutes: &minutes,
			Message: fmt.Sprintf("%s %d min late", edge, minutes),
		}
	case minutes < 0:
		early := -minutes
		return Verdict{
			Status:  PunctualityEarly,
			Minutes: &early,
			Message: fmt.Sprintf("%s %d min early", edge, early),
		}
	default:
		zero := 0
		return Verdict{
			Status:  PunctualityOnTime,
			Minutes: &zero,
			Message: fmt.Sprintf("%s on time", edge),
		}
	}
}

func unknownVerdict() Verdict {
	return Verdict{Status: PunctualityUnknown, Message: "—"}
}
