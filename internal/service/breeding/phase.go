package breeding

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/domain/models"
	"github.com/herdbook/herdbook/internal/store"
)

// recentEventWindow bounds how many ledger rows are fetched per inference.
// Only the most recent event drives the rules; the rest are context.
const recentEventWindow = 5

// inseminationRecencyDays is how long after a mating or insemination the
// animal is still considered inseminated before falling back to unknown.
const inseminationRecencyDays = 30

// summaryAnimalLimit bounds the farm summary scan.
const summaryAnimalLimit = 1000

// ComputePhase applies the inference rules to an animal, its most recent
// events (ordered by date descending) and the farm's resolved settings.
// It is a pure function: deterministic, total, never errors.
//
// Rule precedence: non-female animals are unknown; the maturity gate
// overrides any event history; with no history the life-stage label decides;
// otherwise only the single most recent event matters.
func ComputePhase(animal models.Animal, events []models.BreedingEvent, cfg Settings, asOf time.Time) models.Phase {
	if animal.Sex != models.SexFemale {
		return models.PhaseUnknown
	}

	if animal.BirthDate != nil {
		if animal.AgeInMonths(asOf) < cfg.HeiferMaturityMonths {
			return models.PhaseImmature
		}
	}

	if len(events) == 0 {
		if animal.Stage == models.StageHeifer || animal.Stage == models.StageCow {
			return models.PhaseEstrus
		}
		return models.PhaseUnknown
	}

	latest := events[0]
	if latest.Date.IsZero() {
		return models.PhaseUnknown
	}
	daysSince := daysBetween(latest.Date, asOf)

	switch latest.EventType {
	case models.EventMiscarriage, models.EventAbortion:
		// Abortion recovers through the same rest window as miscarriage;
		// the aborted phase stays unreachable from here.
		if daysSince < cfg.PostpartumRestDays {
			return models.PhasePostpartum
		}
		return models.PhaseEstrus

	case models.EventCalving:
		if daysSince < cfg.PostpartumRestDays {
			return models.PhasePostpartum
		}
		if animal.LactationStage != "" {
			return models.PhaseLactating
		}
		return models.PhaseEstrus

	case models.EventPregnancyCheck:
		if latest.Outcome != models.OutcomeSuccessful {
			return models.PhaseUnknown
		}
		if latest.ExpectedCalvingDate != nil {
			daysToCalving := daysBetween(asOf, *latest.ExpectedCalvingDate)
			if daysToCalving <= cfg.DryOffLeadDays {
				return models.PhaseDryOff
			}
			return models.PhasePregnant
		}
		if daysSince < cfg.GestationDays {
			return models.PhasePregnant
		}
		return models.PhaseUnknown

	case models.EventInsemination, models.EventMating:
		if daysSince < inseminationRecencyDays {
			return models.PhaseInseminated
		}
		return models.PhaseUnknown
	}

	return models.PhaseUnknown
}

// Phase fetches the animal, its recent events and the farm settings, then
// runs the inference rules as of the given date. A missing animal resolves
// to unknown, never an error.
func (s *Service) Phase(ctx context.Context, animalID, farmID string, asOf time.Time) models.Phase {
	animal, found := s.fetchAnimal(ctx, animalID)
	if !found {
		return models.PhaseUnknown
	}

	events := s.recentEvents(ctx, animalID)
	cfg := s.Settings(ctx, farmID)

	return ComputePhase(animal, events, cfg, asOf)
}

// UpdatePhase recomputes the animal's phase as of today and writes it into
// the cached repro_phase field. The cache is best-effort: concurrent event
// creation can interleave so the stored value reflects only one of them
// until the next recomputation.
func (s *Service) UpdatePhase(ctx context.Context, animalID, farmID string) (models.Phase, error) {
	phase := s.Phase(ctx, animalID, farmID, s.today())

	_, err := s.store.Update(ctx, store.TableAnimals, "id", animalID, map[string]any{
		"repro_phase": string(phase),
	})
	if err != nil {
		return phase, err
	}

	return phase, nil
}

// Summary tallies the current phase of every female animal on the farm.
// Every phase key is present in the result, zero when unused.
func (s *Service) Summary(ctx context.Context, farmID string) map[models.Phase]int {
	counts := make(map[models.Phase]int, len(models.AllPhases()))
	for _, p := range models.AllPhases() {
		counts[p] = 0
	}

	rows, err := s.store.Select(ctx, store.TableAnimals, store.Query{
		Filters: []store.Filter{
			store.Eq("farm_id", farmID),
			store.Eq("sex", string(models.SexFemale)),
		},
		Limit: summaryAnimalLimit,
	})
	if err != nil {
		s.logger.Warn("farm summary animal scan failed",
			zap.String("farm_id", farmID),
			zap.Error(err))
		return counts
	}

	// One event lookup per animal. Fine at farm scale; batching the ledger
	// reads is the known lever if this ever needs to go bigger.
	cfg := s.Settings(ctx, farmID)
	asOf := s.today()
	for _, row := range rows {
		animal := models.AnimalFromRow(row)
		events := s.recentEvents(ctx, animal.ID)
		counts[ComputePhase(animal, events, cfg, asOf)]++
	}

	return counts
}

func (s *Service) fetchAnimal(ctx context.Context, animalID string) (models.Animal, bool) {
	rows, err := s.store.Select(ctx, store.TableAnimals, store.Query{
		Filters: []store.Filter{store.Eq("id", animalID)},
		Limit:   1,
	})
	if err != nil {
		s.logger.Warn("animal lookup failed",
			zap.String("animal_id", animalID),
			zap.Error(err))
		return models.Animal{}, false
	}
	if len(rows) == 0 {
		return models.Animal{}, false
	}
	return models.AnimalFromRow(rows[0]), true
}

func (s *Service) recentEvents(ctx context.Context, animalID string) []models.BreedingEvent {
	rows, err := s.store.Select(ctx, store.TableBreedingEvents, store.Query{
		Filters: []store.Filter{store.Eq("animal_id", animalID)},
		OrderBy: "date",
		Limit:   recentEventWindow,
	})
	if err != nil {
		s.logger.Warn("recent events lookup failed",
			zap.String("animal_id", animalID),
			zap.Error(err))
		return nil
	}

	events := make([]models.BreedingEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, models.EventFromRow(row))
	}
	return events
}

// daysBetween returns the whole calendar days from one date to another.
// Negative when to precedes from; future-dated events fall out of the
// arithmetic naturally.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
