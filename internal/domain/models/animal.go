package models

import "time"

// Sex enumerates the recorded sex of an animal.
type Sex string

const (
	SexFemale  Sex = "female"
	SexMale    Sex = "male"
	SexUnknown Sex = "unknown"
)

// Life-stage labels used as a tie-break for animals with no event history.
const (
	StageHeifer = "heifer"
	StageCow    = "cow"
)

// Animal is the subset of the animal registry row the breeding subsystem
// reads and writes. ReproPhase is a cache of the inference result, never a
// source of truth.
type Animal struct {
	ID             string     `json:"id"`
	FarmID         string     `json:"farm_id"`
	Sex            Sex        `json:"sex"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Stage          string     `json:"stage,omitempty"`
	LactationStage string     `json:"lactation_stage,omitempty"`
	ReproPhase     Phase      `json:"repro_phase,omitempty"`
}

// AgeInMonths returns the animal's age in whole months as of the given date,
// or -1 when the birth date is unknown.
func (a Animal) AgeInMonths(asOf time.Time) int {
	if a.BirthDate == nil {
		return -1
	}
	birth := *a.BirthDate
	months := (asOf.Year()-birth.Year())*12 + int(asOf.Month()) - int(birth.Month())
	if asOf.Day() < birth.Day() {
		months--
	}
	return months
}

// AnimalFromRow decodes a datastore row into an Animal. Unknown or malformed
// fields degrade to zero values rather than failing the decode.
func AnimalFromRow(row map[string]any) Animal {
	a := Animal{
		ID:             stringField(row, "id"),
		FarmID:         stringField(row, "farm_id"),
		Sex:            Sex(stringField(row, "sex")),
		Stage:          stringField(row, "stage"),
		LactationStage: stringField(row, "lactation_stage"),
		ReproPhase:     Phase(stringField(row, "repro_phase")),
	}
	if raw, ok := row["birth_date"]; ok && raw != nil {
		if d, err := ParseDate(raw); err == nil {
			a.BirthDate = &d
		}
	}
	return a
}
