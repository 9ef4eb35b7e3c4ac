package models

import "strings"

// TimeLayout is the timestamp format used for record provenance.
const TimeLayout = "2006-01-02 15:04:05"

// TypeList is an ordered sequence of business type tags. It is kept as a
// slice in memory and stored as a comma joined string in tabular output.
type TypeList []string

// MarshalCSV implements the gocsv field marshaller.
func (tl TypeList) MarshalCSV() (string, error) {
	return strings.Join(tl, ", "), nil
}

// UnmarshalCSV implements the gocsv field unmarshaller.
func (tl *TypeList) UnmarshalCSV(value string) error {
	if value == "" {
		*tl = nil
		return nil
	}
	parts := strings.Split(value, ",")
	out := make(TypeList, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*tl = out
	return nil
}

// Provenance records which query, location and time produced a record.
type Provenance struct {
	Query     string // The text query that was sent to the places provider.
	Location  string // The location string the query was anchored to.
	ScrapedAt string // Timestamp in TimeLayout format.
}

// BusinessRecord is the canonical normalized business entity. It is created
// by the normalizer and never mutated afterwards.
type BusinessRecord struct {
	Name           string   `csv:"name"`
	Address        string   `csv:"address"`
	Phone          string   `csv:"phone"`
	EmailGuess     string   `csv:"email_guess"` // Unverified pattern guess from the website domain, never validated.
	Website        string   `csv:"website"`
	Rating         *float64 `csv:"rating"`
	ReviewCount    *int     `csv:"review_count"`
	BusinessStatus string   `csv:"business_status"`
	PrimaryType    string   `csv:"primary_type"`
	AllTypes       TypeList `csv:"all_types"`
	OpeningHours   string   `csv:"opening_hours"`
	Latitude       *float64 `csv:"latitude"`
	Longitude      *float64 `csv:"longitude"`
	PlaceID        string   `csv:"place_id"`
	SearchQuery    string   `csv:"search_query"`
	SearchLocation string   `csv:"search_location"`
	ScrapedAt      string   `csv:"scraped_at"`
}

// HasContactSignal reports whether the record carries at least one way to
// reach the business. Records without any contact signal are not worth keeping.
func (br BusinessRecord) HasContactSignal() bool {
	return br.Address != "" || br.Phone != "" || br.Website != ""
}
