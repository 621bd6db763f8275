package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NWSClient fetches archived alerts from the National Weather Service API
// for the covered South Florida counties.
type NWSClient struct {
	baseURL    string
	userAgent  string
	start      time.Time
	end        time.Time
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNWSClient creates an NWS alerts client restricted to the given time
// window. The NWS API requires a descriptive User-Agent.
func NewNWSClient(baseURL, userAgent string, start, end time.Time, timeout time.Duration, logger *slog.Logger) *NWSClient {
	return &NWSClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		start:     start,
		end:       end,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Name implements Source.
func (c *NWSClient) Name() string {
	return "NWS"
}

// Fetch retrieves actual alerts, keeping those whose affected area mentions
// Broward or Miami-Dade and whose sent time is inside the client's window.
// The window is re-checked locally on top of the API's start/end filter.
func (c *NWSClient) Fetch(ctx context.Context) ([]Bulletin, error) {
	params := url.Values{
		"start":  {c.start.UTC().Format(time.RFC3339)},
		"end":    {c.end.UTC().Format(time.RFC3339)},
		"status": {"actual"},
		"limit":  {"200"},
	}
	fullURL := c.baseURL + "/alerts?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nws alerts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	var alertsResp alertsResponse
	if err := json.NewDecoder(resp.Body).Decode(&alertsResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var bulletins []Bulletin
	for _, f := range alertsResp.Features {
		p := f.Properties
		if !coversArea(p.AreaDesc) {
			continue
		}

		publishedAt := p.Sent
		if publishedAt.IsZero() {
			publishedAt = p.Effective
		}
		if publishedAt.IsZero() {
			c.logger.Warn("Skip alert without timestamp", "alert", p.ID)
			continue
		}
		ts := publishedAt.UTC()
		if ts.Before(c.start) || ts.After(c.end) {
			continue
		}

		itemID := p.ID
		if itemID == "" {
			itemID = f.ID
		}
		alertURL := f.ID
		if alertURL == "" {
			alertURL = c.baseURL + "/alerts/" + url.PathEscape(itemID)
		}

		bulletins = append(bulletins, Bulletin{
			ItemID:      itemID,
			URL:         alertURL,
			PublishedAt: ts,
			Text:        joinAlertText(p.Headline, p.Description, p.Instruction),
		})
	}

	c.logger.Debug("Fetched NWS alerts",
		"total", len(alertsResp.Features),
		"kept", len(bulletins))
	return bulletins, nil
}

// coversArea reports whether an alert's area description mentions one of the
// covered counties. NWS spells Miami-Dade both with and without the hyphen.
func coversArea(areaDesc string) bool {
	area := strings.ToLower(areaDesc)
	return strings.Contains(area, "broward") ||
		strings.Contains(area, "miami-dade") ||
		strings.Contains(area, "miami dade")
}

func joinAlertText(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// NWS API response types.

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	ID         string          `json:"id"`
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	ID          string    `json:"id"`
	AreaDesc    string    `json:"areaDesc"`
	Sent        time.Time `json:"sent"`
	Effective   time.Time `json:"effective"`
	Headline    string    `json:"headline"`
	Description string    `json:"description"`
	Instruction string    `json:"instruction"`
}
