package breeding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/domain/models"
	"github.com/herdbook/herdbook/internal/store"
)

// defaultListLimit bounds ListEvents when the caller does not.
const defaultListLimit = 100

// CreateEventInput carries caller-supplied fields for a new ledger entry.
// EventType accepts canonical values, keyboard labels and loosely formatted
// variants; Date and ExpectedCalvingDate accept time.Time values or ISO-style
// strings.
type CreateEventInput struct {
	FarmID              string
	AnimalID            string
	EventType           string
	Date                any
	SireID              string
	Outcome             string
	ExpectedCalvingDate any
	Details             string
	Meta                map[string]any
	CreatedBy           string
}

// RecordResult reports the outcome of RecordEvent: the persisted event plus
// the fate of each best-effort side effect, so callers and tests can observe
// partial outcomes without scraping logs.
type RecordResult struct {
	Event models.BreedingEvent

	Phase        models.Phase
	PhaseUpdated bool
	PhaseError   error

	Reminders      []models.Reminder
	ReminderErrors []error
}

// RecordEvent validates, persists and post-processes one breeding event.
//
// Validation failures (models.ErrInvalidEventType, models.ErrInvalidDate)
// and the primary insert failure are returned to the caller; the phase
// recompute and reminder derivation that follow a successful insert are
// best-effort and only surface through the RecordResult.
func (s *Service) RecordEvent(ctx context.Context, input CreateEventInput) (*RecordResult, error) {
	eventType, err := models.NormalizeEventType(input.EventType)
	if err != nil {
		return nil, err
	}

	date, err := models.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	event := models.BreedingEvent{
		FarmID:    input.FarmID,
		AnimalID:  input.AnimalID,
		EventType: eventType,
		Date:      date,
		SireID:    input.SireID,
		Outcome:   input.Outcome,
		Details:   input.Details,
		Meta:      input.Meta,
		CreatedBy: input.CreatedBy,
	}

	if input.ExpectedCalvingDate != nil {
		expected, err := models.ParseDate(input.ExpectedCalvingDate)
		if err != nil {
			return nil, err
		}
		event.ExpectedCalvingDate = &expected
	}

	cfg := s.Settings(ctx, input.FarmID)
	if event.ExpectedCalvingDate == nil &&
		(eventType == models.EventMating || eventType == models.EventInsemination) {
		expected := date.AddDate(0, 0, cfg.GestationDays)
		event.ExpectedCalvingDate = &expected
	}

	inserted, err := s.store.Insert(ctx, store.TableBreedingEvents, event.Row())
	if err != nil {
		return nil, fmt.Errorf("persist breeding event: %w", err)
	}
	stored := models.EventFromRow(inserted)

	result := &RecordResult{Event: stored}

	phase, err := s.UpdatePhase(ctx, stored.AnimalID, stored.FarmID)
	result.Phase = phase
	if err != nil {
		result.PhaseError = err
		s.logger.Warn("phase recompute after event creation failed",
			zap.String("animal_id", stored.AnimalID),
			zap.String("event_id", stored.ID),
			zap.Error(err))
	} else {
		result.PhaseUpdated = true
	}

	result.Reminders, result.ReminderErrors = s.deriveReminders(ctx, stored, cfg)

	return result, nil
}

// ListEvents returns the farm's ledger entries, most recent first,
// optionally narrowed to one animal. Read failures degrade to an empty list.
func (s *Service) ListEvents(ctx context.Context, farmID, animalID string, limit int) []models.BreedingEvent {
	if limit <= 0 {
		limit = defaultListLimit
	}

	filters := []store.Filter{store.Eq("farm_id", farmID)}
	if animalID != "" {
		filters = append(filters, store.Eq("animal_id", animalID))
	}

	rows, err := s.store.Select(ctx, store.TableBreedingEvents, store.Query{
		Filters: filters,
		OrderBy: "date",
		Limit:   limit,
	})
	if err != nil {
		s.logger.Warn("event list failed",
			zap.String("farm_id", farmID),
			zap.String("animal_id", animalID),
			zap.Error(err))
		return []models.BreedingEvent{}
	}

	events := make([]models.BreedingEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, models.EventFromRow(row))
	}
	return events
}

// UpdateEvent patches fields of an existing ledger entry. The cached phase
// of the animal is deliberately not recomputed here: callers correcting an
// entry follow up with an explicit recompute when they want the cache fresh.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, patch map[string]any) (models.BreedingEvent, error) {
	row, err := s.store.Update(ctx, store.TableBreedingEvents, "id", eventID, patch)
	if err != nil {
		return models.BreedingEvent{}, fmt.Errorf("update breeding event %s: %w", eventID, err)
	}
	return models.EventFromRow(row), nil
}

// DeleteEvent removes a ledger entry. Like UpdateEvent, the cached phase is
// left untouched.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.store.Delete(ctx, store.TableBreedingEvents, "id", eventID); err != nil {
		return fmt.Errorf("delete breeding event %s: %w", eventID, err)
	}
	return nil
}
