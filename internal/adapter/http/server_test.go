package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
	"github.com/couchcryptid/hurricane-triage/internal/store"
)

var testLogger = slog.New(slog.NewTextHandler(discard{}, nil))

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type readiness struct{ err error }

func (r readiness) CheckReadiness(context.Context) error { return r.err }

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewServer(":0", s, readiness{}, testLogger), s
}

func seedCard(t *testing.T, s *store.Store, id string, mode domain.Mode, urgency domain.Urgency, publishedAt time.Time) {
	t.Helper()
	ctx := context.Background()

	raw := domain.RawUpdate{
		ID:          "raw-" + id,
		Source:      "Broward County EM",
		SourceURL:   "https://example.org/" + id,
		PublishedAt: publishedAt,
		FetchedAt:   publishedAt,
		RawText:     "text",
		ContentHash: "hash-" + id,
	}
	_, err := s.InsertRawUpdate(ctx, raw)
	require.NoError(t, err)
	_, err = s.InsertCleanUpdate(ctx, domain.CleanUpdate{
		ID: raw.ID, RawUpdateID: raw.ID, CleanedText: "text", CleanedHash: "c-" + id, CreatedAt: publishedAt,
	})
	require.NoError(t, err)

	county := domain.CountyBroward
	_, err = s.InsertCard(ctx, domain.Card{
		ID:            id,
		CleanUpdateID: raw.ID,
		Mode:          mode,
		Category:      domain.CategoryShelter,
		Urgency:       urgency,
		County:        &county,
		Title:         "title " + id,
		Summary:       "summary " + id,
		Source:        raw.Source,
		SourceURL:     raw.SourceURL,
		PublishedAt:   publishedAt,
	})
	require.NoError(t, err)
}

func doRequest(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleCards(t *testing.T) {
	srv, s := newTestServer(t)
	base := time.Date(2022, 9, 27, 12, 0, 0, 0, time.UTC)
	seedCard(t, s, "low-old", domain.ModeAction, domain.UrgencyLow, base)
	seedCard(t, s, "high-new", domain.ModeAction, domain.UrgencyHigh, base.Add(time.Hour))
	seedCard(t, s, "info-1", domain.ModeInfo, domain.UrgencyMedium, base.Add(2*time.Hour))

	t.Run("action mode ordered by urgency", func(t *testing.T) {
		rec := doRequest(srv, "/cards?mode=action")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Cards []domain.Card `json:"cards"`
			Count int           `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, 2, body.Count)
		assert.Equal(t, "high-new", body.Cards[0].ID)
		assert.Equal(t, "low-old", body.Cards[1].ID)
	})

	t.Run("filters apply", func(t *testing.T) {
		rec := doRequest(srv, "/cards?mode=action&urgency=high&county=broward&category=shelter")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Cards []domain.Card `json:"cards"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Cards, 1)
		assert.Equal(t, "high-new", body.Cards[0].ID)
	})

	t.Run("time range", func(t *testing.T) {
		rec := doRequest(srv, "/cards?mode=action&from=2022-09-27T12:30:00Z")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Cards []domain.Card `json:"cards"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Cards, 1)
		assert.Equal(t, "high-new", body.Cards[0].ID)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		rec := doRequest(srv, "/cards?mode=info&urgency=high")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"cards":[]`)
	})

	t.Run("missing mode rejected", func(t *testing.T) {
		rec := doRequest(srv, "/cards")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad params rejected", func(t *testing.T) {
		for _, path := range []string{
			"/cards?mode=broadcast",
			"/cards?mode=action&county=duval",
			"/cards?mode=action&category=weather",
			"/cards?mode=action&urgency=severe",
			"/cards?mode=action&from=yesterday",
			"/cards?mode=action&limit=0",
			"/cards?mode=action&limit=31",
			"/cards?mode=action&offset=-1",
		} {
			rec := doRequest(srv, path)
			assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		}
	})
}

func TestHandleStats(t *testing.T) {
	srv, s := newTestServer(t)
	base := time.Date(2022, 9, 27, 12, 0, 0, 0, time.UTC)
	seedCard(t, s, "c1", domain.ModeAction, domain.UrgencyHigh, base)
	seedCard(t, s, "c2", domain.ModeInfo, domain.UrgencyLow, base.Add(time.Hour))

	rec := doRequest(srv, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByCounty["broward"])
	assert.Equal(t, 1, stats.ByMode["action"])

	rec = doRequest(srv, "/stats?from=2022-09-27T12:30:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)

	rec = doRequest(srv, "/stats?from=not-a-time")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	srv, s := newTestServer(t)
	base := time.Date(2022, 9, 27, 12, 0, 0, 0, time.UTC)
	seedCard(t, s, "a-low", domain.ModeAction, domain.UrgencyLow, base)
	seedCard(t, s, "a-high", domain.ModeAction, domain.UrgencyHigh, base.Add(time.Hour))
	seedCard(t, s, "i-1", domain.ModeInfo, domain.UrgencyMedium, base.Add(2*time.Hour))

	var body struct {
		TopUrgentActions []struct {
			ID      string         `json:"id"`
			Title   string         `json:"title"`
			Urgency domain.Urgency `json:"urgency"`
		} `json:"top_urgent_actions"`
		LeadingCategories []store.CategoryCount `json:"leading_categories"`
		Totals            map[string]int        `json:"totals"`
		SummaryText       string                `json:"summary_text"`
	}

	rec := doRequest(srv, "/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.TopUrgentActions, 2)
	assert.Equal(t, "a-high", body.TopUrgentActions[0].ID)
	assert.Equal(t, "a-low", body.TopUrgentActions[1].ID)
	assert.Equal(t, []store.CategoryCount{{Category: "shelter", Count: 3}}, body.LeadingCategories)
	assert.Equal(t, map[string]int{"action": 2, "info": 1}, body.Totals)
	assert.Equal(t,
		"Top urgent actions: title a-high, title a-low | Leading categories: shelter (3) | Totals - action: 2, info: 1",
		body.SummaryText)

	rec = doRequest(srv, "/summary?from=2022-09-27T13:30:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.TopUrgentActions)
	assert.Equal(t, map[string]int{"action": 0, "info": 1}, body.Totals)

	rec = doRequest(srv, "/summary?to=not-a-time")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	notReady := NewServer(":0", nil, readiness{err: errors.New("warming up")}, testLogger)
	rec = doRequest(notReady, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "warming up")
}
