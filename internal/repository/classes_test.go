package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulatrack/class-tracker/internal/database"
	"github.com/aulatrack/class-tracker/internal/model"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	db, err := database.Connect(dsn)
	require.NoError(t, err)

	schema, err := os.ReadFile(filepath.Join("..", "..", "scripts", "schema.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE classes RESTART IDENTITY`)
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string { return &s }

func scheduledParams(occurrenceID *string) model.UpsertScheduledClassParams {
	return model.UpsertScheduledClassParams{
		ZoomMeetingID:   "9001",
		OccurrenceID:    occurrenceID,
		ZoomUUID:        strPtr("uuid-1"),
		Topic:           "Algebra II",
		HostEmail:       "teacher@school.example",
		ScheduledStart:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		SupervisorURL:   strPtr("https://zoom.us/s/9001?zak=abc"),
	}
}

func TestClassRepository_UpsertScheduled(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewClassRepository(db.DB)
	ctx := context.Background()

	t.Run("creates a scheduled row", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-a")))

		require.NoError(t, err)
		assert.Equal(t, model.ClassStatusScheduled, class.Status)
		assert.Equal(t, "Algebra II", class.Topic)
		assert.Equal(t, 45, class.DurationMinutes)
		assert.Nil(t, class.ActualStart)
		assert.Nil(t, class.DelayMinutes)
	})

	t.Run("re-delivery yields the same row, not a second one", func(t *testing.T) {
		first, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-b")))
		require.NoError(t, err)

		second, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-b")))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.ScheduledStart.UTC(), second.ScheduledStart.UTC())

		all, err := repo.FindByMeeting(ctx, "9001")
		require.NoError(t, err)
		count := 0
		for _, c := range all {
			if c.OccurrenceID != nil && *c.OccurrenceID == "occ-b" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("null occurrence id collides with itself", func(t *testing.T) {
		params := scheduledParams(nil)
		params.ZoomMeetingID = "9002"

		first, err := repo.UpsertScheduled(ctx, params)
		require.NoError(t, err)
		second, err := repo.UpsertScheduled(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("re-delivery after start leaves lifecycle fields untouched", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-c")))
		require.NoError(t, err)

		actualStart := time.Date(2026, 3, 10, 9, 12, 0, 0, time.UTC)
		require.NoError(t, repo.MarkStarted(ctx, class.ID, actualStart, 12, strPtr("uuid-c")))

		refreshed := scheduledParams(strPtr("occ-c"))
		refreshed.Topic = "Algebra II (renamed)"
		after, err := repo.UpsertScheduled(ctx, refreshed)
		require.NoError(t, err)

		assert.Equal(t, class.ID, after.ID)
		assert.Equal(t, "Algebra II (renamed)", after.Topic)
		assert.Equal(t, model.ClassStatusLive, after.Status)
		require.NotNil(t, after.ActualStart)
		assert.True(t, after.ActualStart.Equal(actualStart))
		require.NotNil(t, after.DelayMinutes)
		assert.Equal(t, 12, *after.DelayMinutes)
	})

	t.Run("missing supervisor url on re-delivery keeps the stored one", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-d")))
		require.NoError(t, err)
		require.NotNil(t, class.SupervisorURL)

		refreshed := scheduledParams(strPtr("occ-d"))
		refreshed.SupervisorURL = nil
		after, err := repo.UpsertScheduled(ctx, refreshed)
		require.NoError(t, err)

		require.NotNil(t, after.SupervisorURL)
		assert.Equal(t, *class.SupervisorURL, *after.SupervisorURL)
	})
}

func TestClassRepository_MarkStarted(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewClassRepository(db.DB)
	ctx := context.Background()

	actualStart := time.Date(2026, 3, 10, 9, 12, 0, 0, time.UTC)

	t.Run("promotes a scheduled row to live", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-a")))
		require.NoError(t, err)

		require.NoError(t, repo.MarkStarted(ctx, class.ID, actualStart, 12, strPtr("uuid-a")))

		got, err := repo.FindByID(ctx, class.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ClassStatusLive, got.Status)
		require.NotNil(t, got.ActualStart)
		assert.True(t, got.ActualStart.Equal(actualStart))
		require.NotNil(t, got.DelayMinutes)
		assert.Equal(t, 12, *got.DelayMinutes)
		require.NotNil(t, got.ZoomUUID)
		assert.Equal(t, "uuid-a", *got.ZoomUUID)
	})

	t.Run("duplicate started leaves actual_start and delay unchanged", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-b")))
		require.NoError(t, err)
		require.NoError(t, repo.MarkStarted(ctx, class.ID, actualStart, 12, strPtr("uuid-b")))

		require.NoError(t, repo.MarkStarted(ctx, class.ID, actualStart.Add(30*time.Minute), 42, strPtr("uuid-other")))

		got, err := repo.FindByID(ctx, class.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ActualStart)
		assert.True(t, got.ActualStart.Equal(actualStart))
		require.NotNil(t, got.DelayMinutes)
		assert.Equal(t, 12, *got.DelayMinutes)
		require.NotNil(t, got.ZoomUUID)
		assert.Equal(t, "uuid-b", *got.ZoomUUID)
	})

	t.Run("does not resurrect an ended row", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-c")))
		require.NoError(t, err)
		require.NoError(t, repo.MarkEnded(ctx, class.ID, actualStart.Add(time.Hour)))

		require.NoError(t, repo.MarkStarted(ctx, class.ID, actualStart, 12, strPtr("uuid-c")))

		got, err := repo.FindByID(ctx, class.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ClassStatusEnded, got.Status)
		assert.Nil(t, got.ActualStart)
		assert.Nil(t, got.DelayMinutes)
	})
}

func TestClassRepository_MarkEnded(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewClassRepository(db.DB)
	ctx := context.Background()

	actualStart := time.Date(2026, 3, 10, 9, 12, 0, 0, time.UTC)
	actualEnd := actualStart.Add(time.Hour)

	t.Run("closes a live row", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-a")))
		require.NoError(t, err)
		require.NoError(t, repo.MarkStarted(ctx, class.ID, actualStart, 12, strPtr("uuid-a")))

		require.NoError(t, repo.MarkEnded(ctx, class.ID, actualEnd))

		got, err := repo.FindByID(ctx, class.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ClassStatusEnded, got.Status)
		require.NotNil(t, got.ActualEnd)
		assert.True(t, got.ActualEnd.Equal(actualEnd))
	})

	t.Run("duplicate ended keeps the first actual_end", func(t *testing.T) {
		class, err := repo.UpsertScheduled(ctx, scheduledParams(strPtr("occ-b")))
		require.NoError(t, err)
		require.NoError(t, repo.MarkEnded(ctx, class.ID, actualEnd))

		require.NoError(t, repo.MarkEnded(ctx, class.ID, actualEnd.Add(time.Hour)))

		got, err := repo.FindByID(ctx, class.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ClassStatusEnded, got.Status)
		require.NotNil(t, got.ActualEnd)
		assert.True(t, got.ActualEnd.Equal(actualEnd))
	})
}

func TestClassRepository_CreateLive(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewClassRepository(db.DB)
	ctx := context.Background()

	actualStart := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	liveParams := func(meetingID string) model.CreateLiveClassParams {
		return model.CreateLiveClassParams{
			ZoomMeetingID: meetingID,
			ZoomUUID:      strPtr("uuid-live"),
			Topic:         "Untitled class",
			HostEmail:     "teacher@school.example",
			ActualStart:   actualStart,
		}
	}

	t.Run("inserts an unannounced session as live", func(t *testing.T) {
		class, err := repo.CreateLive(ctx, liveParams("9101"))

		require.NoError(t, err)
		assert.Equal(t, model.ClassStatusLive, class.Status)
		require.NotNil(t, class.ActualStart)
		assert.True(t, class.ActualStart.Equal(actualStart))
		assert.True(t, class.ScheduledStart.Equal(actualStart))
		require.NotNil(t, class.DelayMinutes)
		assert.Equal(t, 0, *class.DelayMinutes)
	})

	t.Run("duplicate started events reuse the same row", func(t *testing.T) {
		first, err := repo.CreateLive(ctx, liveParams("9102"))
		require.NoError(t, err)

		dup := liveParams("9102")
		dup.ActualStart = actualStart.Add(5 * time.Minute)
		second, err := repo.CreateLive(ctx, dup)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		require.NotNil(t, second.ActualStart)
		assert.True(t, second.ActualStart.Equal(actualStart))
	})

	t.Run("does not regress an ended row to live", func(t *testing.T) {
		first, err := repo.CreateLive(ctx, liveParams("9103"))
		require.NoError(t, err)
		require.NoError(t, repo.MarkEnded(ctx, first.ID, actualStart.Add(time.Hour)))

		second, err := repo.CreateLive(ctx, liveParams("9103"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, model.ClassStatusEnded, second.Status)
	})
}

func TestClassRepository_FindMissingRecordings(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewClassRepository(db.DB)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	endedClass := func(occ string, end time.Time) *model.Class {
		params := scheduledParams(strPtr(occ))
		class, err := repo.UpsertScheduled(ctx, params)
		require.NoError(t, err)
		require.NoError(t, repo.MarkStarted(ctx, class.ID, end.Add(-time.Hour), 0, strPtr("uuid-"+occ)))
		require.NoError(t, repo.MarkEnded(ctx, class.ID, end))
		return class
	}

	t.Run("returns ended rows missing artifacts within the window", func(t *testing.T) {
		inWindow := endedClass("occ-a", now.Add(-2*time.Hour))
		endedClass("occ-too-recent", now.Add(-time.Minute))

		complete := endedClass("occ-complete", now.Add(-3*time.Hour))
		require.NoError(t, repo.UpdateRecording(ctx, complete.ID, model.RecordingUpdateParams{
			Transcription:   strPtr("WEBVTT"),
			VideoURL:        strPtr("https://zoom.us/rec/v.mp4"),
			WebhookReceived: true,
		}))

		got, err := repo.FindMissingRecordings(ctx, now.Add(-24*time.Hour), now.Add(-10*time.Minute), 20)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, inWindow.ID, got[0].ID)
	})
}
