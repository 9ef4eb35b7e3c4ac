// Package normalize maps raw provider place payloads into canonical
// business records and hosts the small string-cleaning helpers that feed it.
package normalize

import (
	"regexp"
	"strings"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// defaultPrimaryType is the sentinel used when the provider returned no types.
const defaultPrimaryType = "establishment"

var (
	phoneJunkRe = regexp.MustCompile(`[^\d+]`)
	protocolRe  = regexp.MustCompile(`^https?://`)
)

// Normalize builds the canonical BusinessRecord for a raw place. Missing
// fields get fallbacks or stay absent; no validation happens here, the
// deduplicator is the gate.
func Normalize(place models.RawPlace, prov models.Provenance) models.BusinessRecord {
	address := place.Address
	if address == "" {
		address = place.Vicinity
	}

	phone := place.NationalPhone
	if phone == "" {
		phone = place.InternationalPhone
	}

	primaryType := defaultPrimaryType
	if len(place.Types) > 0 {
		primaryType = place.Types[0]
	}

	return models.BusinessRecord{
		PlaceID:        place.ID,
		Name:           place.Name,
		Address:        address,
		Phone:          CleanPhone(phone),
		EmailGuess:     GuessEmail(place.Website),
		Website:        place.Website,
		Rating:         place.Rating,
		ReviewCount:    place.UserRatingCount,
		BusinessStatus: place.BusinessStatus,
		PrimaryType:    primaryType,
		AllTypes:       models.TypeList(place.Types),
		OpeningHours:   strings.Join(place.WeekdayHours, "; "),
		Latitude:       place.Latitude,
		Longitude:      place.Longitude,
		SearchQuery:    prov.Query,
		SearchLocation: prov.Location,
		ScrapedAt:      prov.ScrapedAt,
	}
}

// CleanPhone standardizes a phone number: strips formatting, keeps a leading
// plus and prefixes the North American country code when the bare digit count
// makes that unambiguous.
func CleanPhone(phone string) string {
	if phone == "" {
		return ""
	}

	cleaned := phoneJunkRe.ReplaceAllString(phone, "")
	if strings.HasPrefix(cleaned, "+") {
		return "+" + strings.ReplaceAll(cleaned[1:], "+", "")
	}

	const nanpLen = 10
	switch {
	case len(cleaned) == nanpLen:
		return "+1" + cleaned
	case len(cleaned) == nanpLen+1 && strings.HasPrefix(cleaned, "1"):
		return "+" + cleaned
	}
	return cleaned
}

// DomainFromWebsite extracts the bare domain from a website URL.
func DomainFromWebsite(website string) string {
	if website == "" {
		return ""
	}

	domain := protocolRe.ReplaceAllString(website, "")
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.IndexByte(domain, '/'); idx >= 0 {
		domain = domain[:idx]
	}
	if idx := strings.IndexByte(domain, ':'); idx >= 0 {
		domain = domain[:idx]
	}
	return strings.ToLower(domain)
}

// GuessEmail derives an info@domain address from the business website. The
// guess is speculative and unverified; it is stored under an explicitly
// labeled column and never treated as a contact signal.
func GuessEmail(website string) string {
	domain := DomainFromWebsite(website)
	if domain == "" {
		return ""
	}
	return "info@" + domain
}
