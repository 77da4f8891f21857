package models

import "time"

// Reminder kinds derived from breeding events.
const (
	ReminderPregnancyCheck = "pregnancy_check"
	ReminderDryOff         = "dry_off"
	ReminderCalving        = "calving"
	ReminderNextEstrus     = "next_estrus"
)

// ReminderPayload links a reminder back to the breeding event and animal it
// was derived from.
type ReminderPayload struct {
	Type     string `json:"type"`
	EventID  string `json:"event_id,omitempty"`
	AnimalID string `json:"animal_id"`
}

// Reminder is a scheduled follow-up emitted as a side effect of recording
// certain breeding events. An external scheduler consumes and clears them;
// this subsystem only inserts.
type Reminder struct {
	ID      string          `json:"id,omitempty"`
	FarmID  string          `json:"farm_id"`
	Name    string          `json:"name"`
	NextRun time.Time       `json:"next_run"`
	Payload ReminderPayload `json:"payload"`
	Enabled bool            `json:"enabled"`
}

// Row encodes the reminder for the datastore.
func (r Reminder) Row() map[string]any {
	row := map[string]any{
		"farm_id":  r.FarmID,
		"name":     r.Name,
		"next_run": FormatDate(r.NextRun),
		"payload": map[string]any{
			"type":      r.Payload.Type,
			"event_id":  r.Payload.EventID,
			"animal_id": r.Payload.AnimalID,
		},
		"enabled": r.Enabled,
	}
	if r.ID != "" {
		row["id"] = r.ID
	}
	return row
}
