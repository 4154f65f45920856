package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aulatrack/class-tracker/internal/model"
	"github.com/aulatrack/class-tracker/internal/repository"
)

// OccurrenceResolver maps an inbound event to the persisted occurrence it
// belongs to. Implemented by Matcher; kept as an interface so the
// reconciler can be tested against a fake.
type OccurrenceResolver interface {
	Resolve(ctx context.Context, meetingID, occurrenceID string, reference time.Time) (*model.Class, error)
}

// Matcher resolves the best occurrence row for a meeting event that may
// lack an occurrence identifier or arrive out of order.
type Matcher struct {
	classRepo repository.ClassRepository
}

func NewMatcher(classRepo repository.ClassRepository) *Matcher {
	return &Matcher{classRepo: classRepo}
}

// Resolve finds the occurrence an event refers to.
//
// An exact (meeting, occurrence) match wins unconditionally, even when that
// row already ended: the provider re-sending an identified event is treated
// as authoritative. Without an occurrence id, candidates are all rows of
// the series, narrowed to pending ones when any exist so that a live or
// ended occurrence is never rebound. The closest scheduled start to the
// reference instant wins; ties go to the earliest start because the rows
// are scanned in ascending schedule order.
func (m *Matcher) Resolve(ctx context.Context, meetingID, occurrenceID string, reference time.Time) (*model.Class, error) {
	if occurrenceID != "" {
		class, err := m.classRepo.FindByMeetingAndOccurrence(ctx, meetingID, occurrenceID)
		if err != nil {
			return nil, fmt.Errorf("find by occurrence: %w", err)
		}
		if class != nil {
			return class, nil
		}
	}

	all, err := m.classRepo.FindByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("find by meeting: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	candidates := pendingOnly(all)
	if len(candidates) == 0 {
		candidates = all
	}

	best := candidates[0]
	bestDiff := absDuration(best.ScheduledStart.Sub(reference))
	for _, c := range candidates[1:] {
		if diff := absDuration(c.ScheduledStart.Sub(reference)); diff < bestDiff {
			best = c
			bestDiff = diff
		}
	}
	return &best, nil
}

func pendingOnly(classes []model.Class) []model.Class {
	pending := make([]model.Class, 0, len(classes))
	for _, c := range classes {
		if c.Pending() {
			pending = append(pending, c)
		}
	}
	return pending
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
