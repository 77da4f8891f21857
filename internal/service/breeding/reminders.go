package breeding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/domain/models"
	"github.com/herdbook/herdbook/internal/store"
)

// pregnancyCheckLeadDays is how long after a mating or insemination the
// follow-up pregnancy check is due.
const pregnancyCheckLeadDays = 30

// calvingLookBackDays is how far before the expected calving date the
// calving reminder fires.
const calvingLookBackDays = 7

// deriveReminders schedules the follow-ups implied by a just-created event.
// Each reminder write is independent: one failure is collected and logged
// but never blocks the others, and never unwinds the event itself.
func (s *Service) deriveReminders(ctx context.Context, event models.BreedingEvent, cfg Settings) ([]models.Reminder, []error) {
	var reminders []models.Reminder

	switch event.EventType {
	case models.EventMating, models.EventInsemination:
		reminders = append(reminders, models.Reminder{
			FarmID:  event.FarmID,
			Name:    "Pregnancy check due",
			NextRun: event.Date.AddDate(0, 0, pregnancyCheckLeadDays),
			Payload: models.ReminderPayload{
				Type:     models.ReminderPregnancyCheck,
				EventID:  event.ID,
				AnimalID: event.AnimalID,
			},
			Enabled: true,
		})
		if event.ExpectedCalvingDate != nil {
			reminders = append(reminders, models.Reminder{
				FarmID:  event.FarmID,
				Name:    "Dry-off due",
				NextRun: event.ExpectedCalvingDate.AddDate(0, 0, -cfg.DryOffLeadDays),
				Payload: models.ReminderPayload{
					Type:     models.ReminderDryOff,
					EventID:  event.ID,
					AnimalID: event.AnimalID,
				},
				Enabled: true,
			})
		}

	case models.EventCalving:
		// The look-back reminder needs a projected calving date on the
		// event, which calving events rarely carry; skipped silently when
		// absent rather than inferred from another source.
		if event.ExpectedCalvingDate != nil {
			reminders = append(reminders, models.Reminder{
				FarmID:  event.FarmID,
				Name:    "Calving expected",
				NextRun: event.ExpectedCalvingDate.AddDate(0, 0, -calvingLookBackDays),
				Payload: models.ReminderPayload{
					Type:     models.ReminderCalving,
					EventID:  event.ID,
					AnimalID: event.AnimalID,
				},
				Enabled: true,
			})
		}
		reminders = append(reminders, models.Reminder{
			FarmID:  event.FarmID,
			Name:    "Next estrus expected",
			NextRun: event.Date.AddDate(0, 0, cfg.PostpartumRestDays),
			Payload: models.ReminderPayload{
				Type:     models.ReminderNextEstrus,
				EventID:  event.ID,
				AnimalID: event.AnimalID,
			},
			Enabled: true,
		})

	default:
		return nil, nil
	}

	var scheduled []models.Reminder
	var errs []error
	for _, r := range reminders {
		inserted, err := s.store.Insert(ctx, store.TableReminders, r.Row())
		if err != nil {
			errs = append(errs, err)
			s.logger.Warn("reminder scheduling failed",
				zap.String("reminder", r.Payload.Type),
				zap.String("event_id", event.ID),
				zap.Error(err))
			continue
		}
		if id, ok := inserted["id"]; ok && id != nil {
			r.ID = fmt.Sprint(id)
		}
		scheduled = append(scheduled, r)
	}

	return scheduled, errs
}
