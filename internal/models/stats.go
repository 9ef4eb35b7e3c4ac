package models

// Stats summarizes the collected dataset: totals, coverage of the optional
// contact fields and the distribution of primary business types.
type Stats struct {
	TotalRecords int            // Number of persisted records.
	UniquePlaces int            // Number of distinct non-empty place identifiers.
	UniqueNames  int            // Number of distinct business names.
	HasPhone     int            // Records with a phone number.
	HasWebsite   int            // Records with a website.
	HasRating    int            // Records with a rating.
	AvgRating    float64        // Mean rating over records that have one, 0 when none do.
	TypeCounts   map[string]int // Primary type -> record count.
}
