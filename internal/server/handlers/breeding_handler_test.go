package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdbook/herdbook/internal/server/handlers"
	"github.com/herdbook/herdbook/internal/server/router"
	"github.com/herdbook/herdbook/internal/service/breeding"
	"github.com/herdbook/herdbook/internal/store"
	"github.com/herdbook/herdbook/internal/store/memory"
)

func newTestServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := breeding.NewService(st, nil)
	handler := handlers.NewBreedingHandler(svc, nil)
	return router.New(handler, nil), st
}

func seedCow(t *testing.T, st *memory.Store, id string) {
	t.Helper()
	_, err := st.Insert(context.Background(), store.TableAnimals, map[string]any{
		"id":         id,
		"farm_id":    "farm-1",
		"sex":        "female",
		"stage":      "cow",
		"birth_date": "2019-05-01",
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecordEventEndpoint(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")

	rec := doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/cow-1/events",
		`{"event_type":"🐂 Mating","date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Event struct {
			EventType           string `json:"event_type"`
			ExpectedCalvingDate string `json:"expected_calving_date"`
		} `json:"event"`
		Phase              string `json:"phase"`
		PhaseUpdated       bool   `json:"phase_updated"`
		RemindersScheduled int    `json:"reminders_scheduled"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mating", resp.Event.EventType)
	assert.True(t, strings.HasPrefix(resp.Event.ExpectedCalvingDate, "2024-10-10"))
	assert.True(t, resp.PhaseUpdated)
	assert.Equal(t, 2, resp.RemindersScheduled)
}

func TestRecordEventEndpointValidation(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")

	// Bad event type and bad date get distinct, actionable messages.
	rec := doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/cow-1/events",
		`{"event_type":"banana","date":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "event type")

	rec = doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/cow-1/events",
		`{"event_type":"mating","date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date")

	assert.Zero(t, st.Count(store.TableBreedingEvents))
}

func TestListEventsEndpoint(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")

	for _, day := range []string{"2024-01-01", "2024-02-01"} {
		rec := doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/cow-1/events",
			`{"event_type":"other","date":"`+day+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/farms/farm-1/events?animal_id=cow-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []struct {
			Date string `json:"date"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.True(t, strings.HasPrefix(resp.Events[0].Date, "2024-02-01"))
}

func TestPhaseEndpoint(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")

	rec := doJSON(t, h, http.MethodGet, "/farms/farm-1/animals/cow-1/phase", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "estrus")

	// Unknown animals resolve to unknown, not an error.
	rec = doJSON(t, h, http.MethodGet, "/farms/farm-1/animals/ghost/phase", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown")
}

func TestRecomputePhaseEndpoint(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")

	rec := doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/cow-1/phase/recompute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "estrus")

	rec = doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/ghost/phase/recompute", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDeleteEventEndpoints(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")

	rec := doJSON(t, h, http.MethodPost, "/farms/farm-1/animals/cow-1/events",
		`{"event_type":"other","date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Event.ID)

	rec = doJSON(t, h, http.MethodPatch, "/events/"+created.Event.ID, `{"details":"corrected"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "corrected")

	rec = doJSON(t, h, http.MethodPatch, "/events/ghost", `{"details":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/events/"+created.Event.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, st.Count(store.TableBreedingEvents))
}

func TestSummaryEndpoint(t *testing.T) {
	h, st := newTestServer(t)
	seedCow(t, st, "cow-1")
	seedCow(t, st, "cow-2")

	rec := doJSON(t, h, http.MethodGet, "/farms/farm-1/breeding-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Summary map[string]int `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary["estrus"])
	assert.Equal(t, 0, resp.Summary["pregnant"])
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
