package models

// Phase classifies a female animal's current reproductive lifecycle stage.
type Phase string

const (
	PhaseImmature    Phase = "immature"
	PhaseEstrus      Phase = "estrus"
	PhaseInseminated Phase = "inseminated"
	PhasePregnant    Phase = "pregnant"
	PhaseDryOff      Phase = "dry_off"
	PhasePostpartum  Phase = "postpartum"
	PhaseLactating   Phase = "lactating"
	// PhaseAborted is part of the vocabulary but is never produced by the
	// inference rules: abortion events resolve through the postpartum/estrus
	// branch, same as miscarriage.
	PhaseAborted Phase = "aborted"
	PhaseUnknown Phase = "unknown"
)

// AllPhases returns every phase in a stable order, used to seed summary
// counters and to lay out export rows.
func AllPhases() []Phase {
	return []Phase{
		PhaseImmature,
		PhaseEstrus,
		PhaseInseminated,
		PhasePregnant,
		PhaseDryOff,
		PhasePostpartum,
		PhaseLactating,
		PhaseAborted,
		PhaseUnknown,
	}
}
