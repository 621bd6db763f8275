package domain

import "time"

// Mode says whether a card directs the reader to act or merely informs.
type Mode string

const (
	ModeAction Mode = "action"
	ModeInfo   Mode = "info"
)

// Category is the dashboard's closed topic set.
type Category string

const (
	CategoryShelter        Category = "shelter"
	CategoryMedical        Category = "medical"
	CategoryFoodWater      Category = "food-water"
	CategoryUtilities      Category = "utilities"
	CategoryTransportation Category = "transportation"
)

// Urgency is a closed severity level with a total order (high > medium > low).
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank maps urgency onto its sort order: high=3, medium=2, low=1.
// Unknown values rank lowest.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	default:
		return 1
	}
}

// County identifies which of the two covered counties a card concerns.
type County string

const (
	CountyBroward   County = "broward"
	CountyMiamiDade County = "miami-dade"
)

// RawUpdate is one ingested bulletin, stored verbatim. Immutable once created.
// Unique per (source, source_url) and per (source, source_item_id).
type RawUpdate struct {
	ID           string
	Source       string
	SourceURL    string
	SourceItemID string
	PublishedAt  time.Time
	FetchedAt    time.Time
	RawText      string
	RawHTML      *string
	ContentHash  string
}

// CleanUpdate is the normalized text of exactly one RawUpdate.
// At most one CleanUpdate exists per RawUpdate.
type CleanUpdate struct {
	ID          string
	RawUpdateID string
	CleanedText string
	CleanedHash string
	CreatedAt   time.Time
}

// Card is one classified, user-facing unit derived from exactly one
// CleanUpdate. Source, SourceURL, and PublishedAt are denormalized from the
// originating RawUpdate so the serving layer never joins. A Card is never
// mutated after insertion except to set DuplicateGroupID, which transitions
// from unset to set exactly once.
type Card struct {
	ID               string    `json:"id"`
	CleanUpdateID    string    `json:"clean_update_id"`
	Mode             Mode      `json:"mode"`
	Category         Category  `json:"category"`
	ActionType       *string   `json:"action_type"`
	Urgency          Urgency   `json:"urgency"`
	County           *County   `json:"county"`
	City             *string   `json:"city"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	Source           string    `json:"source"`
	SourceURL        string    `json:"source_url"`
	PublishedAt      time.Time `json:"published_at"`
	DuplicateGroupID *string   `json:"duplicate_group_id"`
}

// DuplicateGroup is a cluster of cards judged to report the same fact.
// Membership is referential: cards point at the group, the group does not
// own its cards.
type DuplicateGroup struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Signature string    `json:"signature"`
}
