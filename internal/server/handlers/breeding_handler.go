package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/domain/models"
	"github.com/herdbook/herdbook/internal/service/breeding"
	"github.com/herdbook/herdbook/internal/store"
)

// BreedingHandler exposes the breeding ledger and phase engine over HTTP.
// The conversational bot layer is one of its callers; it owns no breeding
// logic of its own.
type BreedingHandler struct {
	svc    *breeding.Service
	logger *zap.Logger
}

// NewBreedingHandler constructs the HTTP handler adapter.
func NewBreedingHandler(svc *breeding.Service, logger *zap.Logger) *BreedingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreedingHandler{svc: svc, logger: logger}
}

// recordEventRequest is the JSON body for recording a breeding event.
type recordEventRequest struct {
	EventType           string         `json:"event_type" binding:"required"`
	Date                string         `json:"date" binding:"required"`
	SireID              string         `json:"sire_id"`
	Outcome             string         `json:"outcome"`
	ExpectedCalvingDate string         `json:"expected_calving_date"`
	Details             string         `json:"details"`
	Meta                map[string]any `json:"meta"`
	CreatedBy           string         `json:"created_by"`
}

// recordEventResponse reports the stored event and the fate of the
// best-effort side effects so callers see partial outcomes explicitly.
type recordEventResponse struct {
	Event              models.BreedingEvent `json:"event"`
	Phase              models.Phase         `json:"phase"`
	PhaseUpdated       bool                 `json:"phase_updated"`
	RemindersScheduled int                  `json:"reminders_scheduled"`
	SideEffectErrors   []string             `json:"side_effect_errors,omitempty"`
}

// RecordEvent handles POST /farms/:farm_id/animals/:animal_id/events.
func (h *BreedingHandler) RecordEvent(c *gin.Context) {
	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid record-event payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input := breeding.CreateEventInput{
		FarmID:    c.Param("farm_id"),
		AnimalID:  c.Param("animal_id"),
		EventType: req.EventType,
		Date:      req.Date,
		SireID:    req.SireID,
		Outcome:   req.Outcome,
		Details:   req.Details,
		Meta:      req.Meta,
		CreatedBy: req.CreatedBy,
	}
	if req.ExpectedCalvingDate != "" {
		input.ExpectedCalvingDate = req.ExpectedCalvingDate
	}

	result, err := h.svc.RecordEvent(c.Request.Context(), input)
	switch {
	case errors.Is(err, models.ErrInvalidEventType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized event type"})
		return
	case errors.Is(err, models.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be a calendar date (YYYY-MM-DD)"})
		return
	case err != nil:
		h.logger.Error("failed to persist breeding event", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not save event"})
		return
	}

	resp := recordEventResponse{
		Event:              result.Event,
		Phase:              result.Phase,
		PhaseUpdated:       result.PhaseUpdated,
		RemindersScheduled: len(result.Reminders),
	}
	if result.PhaseError != nil {
		resp.SideEffectErrors = append(resp.SideEffectErrors, "phase recompute failed")
	}
	for range result.ReminderErrors {
		resp.SideEffectErrors = append(resp.SideEffectErrors, "reminder scheduling failed")
	}

	c.JSON(http.StatusCreated, resp)
}

// ListEvents handles GET /farms/:farm_id/events.
func (h *BreedingHandler) ListEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	events := h.svc.ListEvents(c.Request.Context(), c.Param("farm_id"), c.Query("animal_id"), limit)
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// UpdateEvent handles PATCH /events/:event_id with a direct field patch.
func (h *BreedingHandler) UpdateEvent(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patch body"})
		return
	}

	event, err := h.svc.UpdateEvent(c.Request.Context(), c.Param("event_id"), patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	case err != nil:
		h.logger.Error("failed to update breeding event", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not update event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

// DeleteEvent handles DELETE /events/:event_id.
func (h *BreedingHandler) DeleteEvent(c *gin.Context) {
	if err := h.svc.DeleteEvent(c.Request.Context(), c.Param("event_id")); err != nil {
		h.logger.Error("failed to delete breeding event", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not delete event"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Phase handles GET /farms/:farm_id/animals/:animal_id/phase.
// An optional as_of query overrides the evaluation date.
func (h *BreedingHandler) Phase(c *gin.Context) {
	asOf, err := models.ParseDate(c.DefaultQuery("as_of", models.FormatDate(time.Now().UTC())))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be a calendar date (YYYY-MM-DD)"})
		return
	}

	phase := h.svc.Phase(c.Request.Context(), c.Param("animal_id"), c.Param("farm_id"), asOf)
	c.JSON(http.StatusOK, gin.H{"phase": phase})
}

// RecomputePhase handles POST /farms/:farm_id/animals/:animal_id/phase/recompute.
// Callers use it after manual event edits, since update and delete never
// refresh the cached phase on their own.
func (h *BreedingHandler) RecomputePhase(c *gin.Context) {
	phase, err := h.svc.UpdatePhase(c.Request.Context(), c.Param("animal_id"), c.Param("farm_id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	case err != nil:
		h.logger.Error("failed to recompute phase", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not persist phase"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"phase": phase})
}

// Summary handles GET /farms/:farm_id/breeding-summary.
func (h *BreedingHandler) Summary(c *gin.Context) {
	counts := h.svc.Summary(c.Request.Context(), c.Param("farm_id"))
	c.JSON(http.StatusOK, gin.H{"summary": counts})
}
