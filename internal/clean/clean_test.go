package clean

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\n\tb   c  "))
	assert.Equal(t, "", Normalize("   \n\t  "))

	once := Normalize("Shelter   open\nat  Dillard High")
	assert.Equal(t, once, Normalize(once))
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "drops tags and keeps text",
			in:   "<p>Shelter <b>open</b> at Dillard High.</p>",
			want: "Shelter open at Dillard High.",
		},
		{
			name: "block boundaries become spaces",
			in:   "<div>Boil water notice</div><div>until further notice</div>",
			want: "Boil water notice until further notice",
		},
		{
			name: "scripts and styles removed",
			in:   "<style>p{color:red}</style><p>Evacuate zone A</p><script>alert(1)</script>",
			want: "Evacuate zone A",
		},
		{
			name: "plain text passes through",
			in:   "No markup here",
			want: "No markup here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripHTML(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromRaw_PrefersHTML(t *testing.T) {
	htmlBody := "<p>Shelter   open</p>"
	raw := domain.RawUpdate{
		ID:          "raw-1",
		RawText:     "ignored fallback",
		RawHTML:     &htmlBody,
		PublishedAt: time.Date(2022, 9, 27, 12, 0, 0, 0, time.UTC),
	}

	clean, err := FromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, "raw-1", clean.ID)
	assert.Equal(t, "raw-1", clean.RawUpdateID)
	assert.Equal(t, "Shelter open", clean.CleanedText)
	assert.Len(t, clean.CleanedHash, 64)
}

func TestFromRaw_FallsBackToText(t *testing.T) {
	empty := "   "
	tests := []struct {
		name string
		html *string
	}{
		{name: "nil html", html: nil},
		{name: "blank html", html: &empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, err := FromRaw(domain.RawUpdate{ID: "raw-2", RawText: "Boil  water\nnotice", RawHTML: tt.html})
			require.NoError(t, err)
			assert.Equal(t, "Boil water notice", clean.CleanedText)
		})
	}
}

func TestFromRaw_StampsCreationTime(t *testing.T) {
	frozen := time.Date(2022, 9, 28, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	clean, err := FromRaw(domain.RawUpdate{ID: "raw-4", RawText: "Roads closed"})
	require.NoError(t, err)
	assert.Equal(t, frozen, clean.CreatedAt)
}

func TestFromRaw_Deterministic(t *testing.T) {
	raw := domain.RawUpdate{ID: "raw-3", RawText: "Curfew in effect"}

	first, err := FromRaw(raw)
	require.NoError(t, err)
	second, err := FromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, first.CleanedHash, second.CleanedHash)
}
