// Package domain models hurricane-related public bulletins and the triage
// cards derived from them.
//
// # Data Sources
//
// Bulletins originate from the National Weather Service alerts API
// (https://api.weather.gov/alerts) and from county emergency-management
// authorities (Broward County EM, Miami-Dade EM, Florida Division of
// Emergency Management), either scraped, fetched from feeds, or replayed
// from archived advisories. Ingestion stores each bulletin verbatim as a
// RawUpdate; a cleaning stage strips markup and collapses whitespace into a
// CleanUpdate; classification turns each CleanUpdate into exactly one Card.
//
// # Classification Conventions
//
// Mode separates actionable directives from informational updates:
//
//	action — the reader is told to do (or stop doing) something:
//	         evacuate, observe a curfew, use a detour, seek shelter.
//	info   — status reporting with no directive.
//
// Category is a closed set used by the dashboard's filters:
//
//	shelter | medical | food-water | utilities | transportation
//
// Urgency is a closed, totally ordered set used for sorting:
//
//	high > medium > low
//
// High-tier keywords (mandatory, evacuate, curfew, ...) dominate medium-tier
// keywords (advisory, expected, delays, ...); bulletins matching neither tier
// are low.
//
// County is broward or miami-dade, inferred from city mentions in the text
// with the source authority's name as a weaker fallback hint. Bulletins that
// mention no known city and come from an unrecognized authority carry no
// county at all.
//
// # ID Generation
//
// Card IDs are deterministic SHA-256 hashes of clean_update_id, category,
// and mode. Re-classifying the same clean update with unchanged rule tables
// reproduces the same ID, so re-running the extraction stage is naturally
// idempotent: the store's uniqueness constraint turns the re-insert into a
// benign skip. A rule-table change that alters category or mode yields a new
// ID, and therefore a new Card.
//
// # Deduplication
//
// Authorities re-publish the same fact across channels minutes or hours
// apart. Cards are grouped by an exact signature (normalized title, category,
// county, and action type when present) and an anchored six-hour window: the
// first card of a cluster fixes the window's origin, and every later card
// whose published time is within six hours of that fixed origin joins the
// same DuplicateGroup. The anchor never slides. Group IDs are deterministic
// SHA-256 hashes of the signature and the anchor card's ID.
package domain
