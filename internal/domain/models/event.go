package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// EventType is the canonical category of a breeding event.
type EventType string

const (
	EventMating         EventType = "mating"
	EventInsemination   EventType = "insemination"
	EventPregnancyCheck EventType = "pregnancy_check"
	EventCalving        EventType = "calving"
	EventMiscarriage    EventType = "miscarriage"
	EventAbortion       EventType = "abortion"
	EventOther          EventType = "other"
)

// OutcomeSuccessful is the only pregnancy-check outcome the inference rules
// treat as a confirmed pregnancy.
const OutcomeSuccessful = "successful"

// ErrInvalidEventType indicates the supplied event type is outside the
// canonical set even after alias lookup and normalization.
var ErrInvalidEventType = errors.New("invalid event type")

// ErrInvalidDate indicates the supplied event date could not be parsed.
var ErrInvalidDate = errors.New("invalid event date")

var canonicalEventTypes = map[EventType]struct{}{
	EventMating:         {},
	EventInsemination:   {},
	EventPregnancyCheck: {},
	EventCalving:        {},
	EventMiscarriage:    {},
	EventAbortion:       {},
	EventOther:          {},
}

// eventAliases maps the human labels shown by the bot keyboards to canonical
// event types. New labels go here, not into the fallback normalizer.
var eventAliases = map[string]EventType{
	"🐂 mating":          EventMating,
	"💉 insemination":    EventInsemination,
	"🩺 pregnancy check": EventPregnancyCheck,
	"🐄 calving":         EventCalving,
	"⚠️ miscarriage":     EventMiscarriage,
	"❌ abortion":         EventAbortion,
	"📋 other":            EventOther,
	"pregnancy-check":    EventPregnancyCheck,
	"preg check":         EventPregnancyCheck,
	"ai":                 EventInsemination,
}

var nonWordChars = regexp.MustCompile(`[^a-z0-9_\s-]+`)
var separatorRuns = regexp.MustCompile(`[\s-]+`)

// NormalizeEventType resolves free-form event-type input to the canonical
// enumeration. Known labels resolve through the alias table; anything else
// goes through a best-effort normalization (lowercase, strip non-word
// characters, collapse separators to underscore) before the canonical check.
func NormalizeEventType(raw string) (EventType, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrInvalidEventType
	}

	if et, ok := eventAliases[trimmed]; ok {
		return et, nil
	}

	normalized := nonWordChars.ReplaceAllString(trimmed, "")
	normalized = separatorRuns.ReplaceAllString(strings.TrimSpace(normalized), "_")

	if et, ok := eventAliases[strings.ReplaceAll(normalized, "_", " ")]; ok {
		return et, nil
	}

	candidate := EventType(normalized)
	if _, ok := canonicalEventTypes[candidate]; ok {
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidEventType, raw)
}

const dateLayout = "2006-01-02"

// ParseDate coerces a datastore or caller-supplied value into a calendar
// date. Accepts time.Time values and strings with at least a 10-character
// ISO date portion.
func ParseDate(value any) (time.Time, error) {
	if t, ok := value.(time.Time); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if t, ok := value.(*time.Time); ok && t != nil {
		return ParseDate(*t)
	}

	str := strings.TrimSpace(fmt.Sprint(value))
	if len(str) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, str)
	}
	if len(str) > len(dateLayout) {
		str = str[:len(dateLayout)]
	}
	parsed, err := time.Parse(dateLayout, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, str)
	}
	return parsed, nil
}

// FormatDate renders a date the way the datastore stores it.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// BreedingEvent is one row of the append-only reproductive ledger.
type BreedingEvent struct {
	ID                  string         `json:"id"`
	FarmID              string         `json:"farm_id"`
	AnimalID            string         `json:"animal_id"`
	EventType           EventType      `json:"event_type"`
	Date                time.Time      `json:"date"`
	SireID              string         `json:"sire_id,omitempty"`
	Outcome             string         `json:"outcome,omitempty"`
	ExpectedCalvingDate *time.Time     `json:"expected_calving_date,omitempty"`
	Details             string         `json:"details,omitempty"`
	Meta                map[string]any `json:"meta,omitempty"`
	CreatedBy           string         `json:"created_by,omitempty"`
}

// Row encodes the event for the datastore. The id is omitted when empty so
// backends that generate ids on insert can do so.
func (e BreedingEvent) Row() map[string]any {
	row := map[string]any{
		"farm_id":    e.FarmID,
		"animal_id":  e.AnimalID,
		"event_type": string(e.EventType),
		"date":       FormatDate(e.Date),
	}
	if e.ID != "" {
		row["id"] = e.ID
	}
	if e.SireID != "" {
		row["sire_id"] = e.SireID
	}
	if e.Outcome != "" {
		row["outcome"] = e.Outcome
	}
	if e.ExpectedCalvingDate != nil {
		row["expected_calving_date"] = FormatDate(*e.ExpectedCalvingDate)
	}
	if e.Details != "" {
		row["details"] = e.Details
	}
	if len(e.Meta) > 0 {
		row["meta"] = e.Meta
	}
	if e.CreatedBy != "" {
		row["created_by"] = e.CreatedBy
	}
	return row
}

// EventFromRow decodes a datastore row into a BreedingEvent. Malformed
// optional fields degrade to zero values; a malformed date is left as the
// zero time and handled by the inference rules.
func EventFromRow(row map[string]any) BreedingEvent {
	e := BreedingEvent{
		ID:        stringField(row, "id"),
		FarmID:    stringField(row, "farm_id"),
		AnimalID:  stringField(row, "animal_id"),
		EventType: EventType(stringField(row, "event_type")),
		SireID:    stringField(row, "sire_id"),
		Outcome:   stringField(row, "outcome"),
		Details:   stringField(row, "details"),
		CreatedBy: stringField(row, "created_by"),
	}
	if raw, ok := row["date"]; ok && raw != nil {
		if d, err := ParseDate(raw); err == nil {
			e.Date = d
		}
	}
	if raw, ok := row["expected_calving_date"]; ok && raw != nil {
		if d, err := ParseDate(raw); err == nil {
			e.ExpectedCalvingDate = &d
		}
	}
	if raw, ok := row["meta"].(map[string]any); ok {
		e.Meta = raw
	}
	return e
}

func stringField(row map[string]any, key string) string {
	raw, ok := row[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}
