package models

// RawPlace holds the provider-specific fields of one place returned by the
// places API, before normalization. Optional numeric fields are pointers so
// that "absent" survives the trip through enrichment and normalization.
type RawPlace struct {
	ID                 string   // Stable provider identifier, may be empty.
	Name               string   // Display name.
	Address            string   // Formatted address.
	Vicinity           string   // Secondary address field, used as a fallback.
	Latitude           *float64 // Geometry latitude, nil when the provider omitted it.
	Longitude          *float64 // Geometry longitude, nil when the provider omitted it.
	Rating             *float64 // Average rating 0.0-5.0, nil when absent.
	UserRatingCount    *int     // Number of ratings, nil when absent.
	BusinessStatus     string   // OPERATIONAL, CLOSED_TEMPORARILY, CLOSED_PERMANENTLY or empty.
	PriceLevel         string   // Provider price tier, opaque.
	Types              []string // Ordered business type tags.
	NationalPhone      string   // Phone in national format.
	InternationalPhone string   // Phone in international format.
	Website            string   // Website URI.
	WeekdayHours       []string // Human readable opening hours, one line per weekday.
}
