package ingest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(discard{}, nil))

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

const alertsPayload = `{
  "features": [
    {
      "id": "https://api.weather.gov/alerts/urn:oid:1",
      "properties": {
        "id": "urn:oid:1",
        "areaDesc": "Broward; Palm Beach",
        "sent": "2022-09-27T10:00:00Z",
        "headline": "Tropical Storm Warning",
        "description": "Tropical storm conditions expected.",
        "instruction": "Secure loose objects."
      }
    },
    {
      "id": "https://api.weather.gov/alerts/urn:oid:2",
      "properties": {
        "id": "urn:oid:2",
        "areaDesc": "Miami Dade",
        "sent": "2022-09-27T11:00:00Z",
        "headline": "Flood Watch",
        "description": "Flooding possible.",
        "instruction": ""
      }
    },
    {
      "id": "https://api.weather.gov/alerts/urn:oid:3",
      "properties": {
        "id": "urn:oid:3",
        "areaDesc": "Monroe",
        "sent": "2022-09-27T12:00:00Z",
        "headline": "Irrelevant elsewhere",
        "description": "Not our coverage area.",
        "instruction": ""
      }
    },
    {
      "id": "https://api.weather.gov/alerts/urn:oid:4",
      "properties": {
        "id": "urn:oid:4",
        "areaDesc": "Broward",
        "sent": "2022-09-20T00:00:00Z",
        "headline": "Stale advisory",
        "description": "Sent before the window opened.",
        "instruction": ""
      }
    },
    {
      "id": "https://api.weather.gov/alerts/urn:oid:5",
      "properties": {
        "id": "urn:oid:5",
        "areaDesc": "Broward",
        "headline": "Undated alert",
        "description": "No sent or effective timestamp.",
        "instruction": ""
      }
    }
  ]
}`

func ianWindow() (time.Time, time.Time) {
	return time.Date(2022, 9, 26, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 9, 30, 23, 59, 59, 0, time.UTC)
}

func TestNWSClient_Fetch(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alerts", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		gotQuery = map[string]string{
			"start":  r.URL.Query().Get("start"),
			"end":    r.URL.Query().Get("end"),
			"status": r.URL.Query().Get("status"),
			"limit":  r.URL.Query().Get("limit"),
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write([]byte(alertsPayload))
	}))
	defer server.Close()

	start, end := ianWindow()
	client := NewNWSClient(server.URL, "hurricane-triage test", start, end, 5*time.Second, testLogger)
	assert.Equal(t, "NWS", client.Name())

	bulletins, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2022-09-26T00:00:00Z", gotQuery["start"])
	assert.Equal(t, "2022-09-30T23:59:59Z", gotQuery["end"])
	assert.Equal(t, "actual", gotQuery["status"])
	assert.Equal(t, "200", gotQuery["limit"])

	// Monroe-only alert filtered out, along with the Broward alert sent
	// before the window opened and the one carrying no timestamp.
	require.Len(t, bulletins, 2)

	assert.Equal(t, "urn:oid:1", bulletins[0].ItemID)
	assert.Equal(t, "https://api.weather.gov/alerts/urn:oid:1", bulletins[0].URL)
	assert.Equal(t, time.Date(2022, 9, 27, 10, 0, 0, 0, time.UTC), bulletins[0].PublishedAt)
	assert.Equal(t, "Tropical Storm Warning\n\nTropical storm conditions expected.\n\nSecure loose objects.", bulletins[0].Text)

	// Empty instruction does not leave a trailing separator.
	assert.Equal(t, "Flood Watch\n\nFlooding possible.", bulletins[1].Text)
}

func TestNWSClient_Fetch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	start, end := ianWindow()
	client := NewNWSClient(server.URL, "hurricane-triage test", start, end, 5*time.Second, testLogger)

	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestCoversArea(t *testing.T) {
	tests := []struct {
		areaDesc string
		want     bool
	}{
		{"Broward", true},
		{"Coastal Broward County", true},
		{"Miami-Dade", true},
		{"Miami Dade", true},
		{"MIAMI-DADE; MONROE", true},
		{"Monroe", false},
		{"Palm Beach", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, coversArea(tt.areaDesc), tt.areaDesc)
	}
}
