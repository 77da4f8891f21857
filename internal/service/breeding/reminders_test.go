package breeding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdbook/herdbook/internal/domain/models"
	"github.com/herdbook/herdbook/internal/store"
)

func remindersByType(result *RecordResult) map[string]models.Reminder {
	out := map[string]models.Reminder{}
	for _, r := range result.Reminders {
		out[r.Payload.Type] = r
	}
	return out
}

func TestMatingSchedulesPregnancyCheckAndDryOff(t *testing.T) {
	svc, st := newTestService(t, date(2024, time.January, 1))
	seedAnimal(t, st, matureFemale())

	result, err := svc.RecordEvent(context.Background(), CreateEventInput{
		FarmID:    "farm-1",
		AnimalID:  "animal-1",
		EventType: "mating",
		Date:      "2024-01-01",
	})
	require.NoError(t, err)
	require.Empty(t, result.ReminderErrors)

	byType := remindersByType(result)
	require.Len(t, byType, 2)

	check := byType[models.ReminderPregnancyCheck]
	assert.Equal(t, date(2024, time.January, 31), check.NextRun) // date + 30
	assert.Equal(t, "animal-1", check.Payload.AnimalID)
	assert.Equal(t, result.Event.ID, check.Payload.EventID)
	assert.True(t, check.Enabled)

	// Dry-off at expected calving (2024-10-10) minus the 60-day lead.
	dryOff := byType[models.ReminderDryOff]
	assert.Equal(t, date(2024, time.August, 11), dryOff.NextRun)

	assert.Equal(t, 2, st.Count(store.TableReminders))
}

func TestInseminationWithExplicitProjection(t *testing.T) {
	svc, st := newTestService(t, date(2024, time.January, 1))
	seedAnimal(t, st, matureFemale())

	result, err := svc.RecordEvent(context.Background(), CreateEventInput{
		FarmID:              "farm-1",
		AnimalID:            "animal-1",
		EventType:           "insemination",
		Date:                "2024-01-01",
		ExpectedCalvingDate: "2024-10-01",
	})
	require.NoError(t, err)

	byType := remindersByType(result)
	require.Len(t, byType, 2)
	assert.Equal(t, date(2024, time.August, 2), byType[models.ReminderDryOff].NextRun)
}

func TestCalvingSchedulesNextEstrus(t *testing.T) {
	svc, st := newTestService(t, date(2024, time.June, 1))
	seedAnimal(t, st, matureFemale())

	result, err := svc.RecordEvent(context.Background(), CreateEventInput{
		FarmID:    "farm-1",
		AnimalID:  "animal-1",
		EventType: "calving",
		Date:      "2024-06-01",
	})
	require.NoError(t, err)

	byType := remindersByType(result)
	// No projected calving date on the event, so only the estrus follow-up.
	require.Len(t, byType, 1)
	estrus := byType[models.ReminderNextEstrus]
	assert.Equal(t, date(2024, time.July, 31), estrus.NextRun) // date + 60
	assert.Equal(t, 1, st.Count(store.TableReminders))
}

func TestCalvingWithProjectionAddsLookBack(t *testing.T) {
	svc, st := newTestService(t, date(2024, time.June, 1))
	seedAnimal(t, st, matureFemale())

	result, err := svc.RecordEvent(context.Background(), CreateEventInput{
		FarmID:              "farm-1",
		AnimalID:            "animal-1",
		EventType:           "calving",
		Date:                "2024-06-01",
		ExpectedCalvingDate: "2024-06-10",
	})
	require.NoError(t, err)

	byType := remindersByType(result)
	require.Len(t, byType, 2)
	assert.Equal(t, date(2024, time.June, 3), byType[models.ReminderCalving].NextRun) // projection - 7
}

func TestOtherEventTypesDeriveNoReminders(t *testing.T) {
	svc, st := newTestService(t, date(2024, time.June, 1))
	seedAnimal(t, st, matureFemale())

	for _, eventType := range []string{"pregnancy_check", "miscarriage", "abortion", "other"} {
		result, err := svc.RecordEvent(context.Background(), CreateEventInput{
			FarmID:    "farm-1",
			AnimalID:  "animal-1",
			EventType: eventType,
			Date:      "2024-06-01",
		})
		require.NoError(t, err)
		assert.Empty(t, result.Reminders, "type %s", eventType)
		assert.Empty(t, result.ReminderErrors, "type %s", eventType)
	}
	assert.Zero(t, st.Count(store.TableReminders))
}
