package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
	"github.com/couchcryptid/hurricane-triage/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CardStore is the slice of the store the API reads from.
type CardStore interface {
	ListCards(ctx context.Context, f store.CardFilter) ([]domain.Card, error)
	CardStats(ctx context.Context, from, to *time.Time) (store.Stats, error)
	CardSummary(ctx context.Context, from, to *time.Time) (store.Summary, error)
}

// Server exposes the card API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	cards      CardStore
	logger     *slog.Logger
}

// NewServer creates the HTTP server with /cards, /stats, /summary, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, cards CardStore, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		cards:  cards,
		logger: logger,
	}

	mux.HandleFunc("GET /cards", s.handleCards)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCardFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cardList, err := s.cards.ListCards(r.Context(), filter)
	if err != nil {
		s.logger.Error("list cards failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if cardList == nil {
		cardList = []domain.Card{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cardList, "count": len(cardList)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := s.cards.CardStats(r.Context(), from, to)
	if err != nil {
		s.logger.Error("card stats failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// summaryAction is the trimmed card view the summary endpoint returns.
type summaryAction struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Urgency     domain.Urgency  `json:"urgency"`
	PublishedAt time.Time       `json:"published_at"`
	County      *domain.County  `json:"county"`
	Category    domain.Category `json:"category"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := s.cards.CardSummary(r.Context(), from, to)
	if err != nil {
		s.logger.Error("card summary failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	actions := make([]summaryAction, 0, len(summary.TopUrgentActions))
	titles := make([]string, 0, len(summary.TopUrgentActions))
	for _, c := range summary.TopUrgentActions {
		actions = append(actions, summaryAction{
			ID:          c.ID,
			Title:       c.Title,
			Urgency:     c.Urgency,
			PublishedAt: c.PublishedAt,
			County:      c.County,
			Category:    c.Category,
		})
		titles = append(titles, c.Title)
	}

	leading := summary.LeadingCategories
	if leading == nil {
		leading = []store.CategoryCount{}
	}

	var parts []string
	if len(titles) > 0 {
		parts = append(parts, "Top urgent actions: "+strings.Join(titles, ", "))
	}
	if len(leading) > 0 {
		counts := make([]string, 0, len(leading))
		for _, cc := range leading {
			counts = append(counts, fmt.Sprintf("%s (%d)", cc.Category, cc.Count))
		}
		parts = append(parts, "Leading categories: "+strings.Join(counts, ", "))
	}
	parts = append(parts, fmt.Sprintf("Totals - action: %d, info: %d",
		summary.ActionCount, summary.InfoCount))

	writeJSON(w, http.StatusOK, map[string]any{
		"top_urgent_actions": actions,
		"leading_categories": leading,
		"totals": map[string]int{
			"action": summary.ActionCount,
			"info":   summary.InfoCount,
		},
		"summary_text": strings.Join(parts, " | "),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

var (
	validModes = map[domain.Mode]bool{
		domain.ModeAction: true,
		domain.ModeInfo:   true,
	}
	validCounties = map[domain.County]bool{
		domain.CountyBroward:   true,
		domain.CountyMiamiDade: true,
	}
	validCategories = map[domain.Category]bool{
		domain.CategoryShelter:        true,
		domain.CategoryMedical:        true,
		domain.CategoryFoodWater:      true,
		domain.CategoryUtilities:      true,
		domain.CategoryTransportation: true,
	}
	validUrgencies = map[domain.Urgency]bool{
		domain.UrgencyLow:    true,
		domain.UrgencyMedium: true,
		domain.UrgencyHigh:   true,
	}
)

func parseCardFilter(r *http.Request) (store.CardFilter, error) {
	q := r.URL.Query()

	mode := domain.Mode(q.Get("mode"))
	if !validModes[mode] {
		return store.CardFilter{}, fmt.Errorf("mode must be %q or %q", domain.ModeAction, domain.ModeInfo)
	}
	filter := store.CardFilter{Mode: mode}

	if v := q.Get("county"); v != "" {
		county := domain.County(v)
		if !validCounties[county] {
			return store.CardFilter{}, fmt.Errorf("unknown county %q", v)
		}
		filter.County = &county
	}
	if v := q.Get("category"); v != "" {
		category := domain.Category(v)
		if !validCategories[category] {
			return store.CardFilter{}, fmt.Errorf("unknown category %q", v)
		}
		filter.Category = &category
	}
	if v := q.Get("urgency"); v != "" {
		urgency := domain.Urgency(v)
		if !validUrgencies[urgency] {
			return store.CardFilter{}, fmt.Errorf("unknown urgency %q", v)
		}
		filter.Urgency = &urgency
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		return store.CardFilter{}, err
	}
	filter.From = from
	to, err := parseTimeParam(r, "to")
	if err != nil {
		return store.CardFilter{}, err
	}
	filter.To = to

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > store.MaxCardLimit {
			return store.CardFilter{}, fmt.Errorf("limit must be between 1 and %d", store.MaxCardLimit)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return store.CardFilter{}, fmt.Errorf("invalid offset %q", v)
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339", key)
	}
	t = t.UTC()
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
