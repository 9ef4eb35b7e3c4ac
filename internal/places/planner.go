package places

import "github.com/SilinPolicyAdvisor/Lead-gen/internal/models"

// Planner constants. Degree offsets are applied to latitude or longitude
// independently without geodesic correction; the approximation is acceptable
// because the spacing is coarse relative to the search radius.
const (
	// largeAreaRadius is the minimum bias radius used for large areas.
	largeAreaRadius = 25000
	// maxRadius is the provider-side ceiling for a location bias circle.
	maxRadius = 50000
	// offsetLarge is the cardinal spacing, roughly 15 km.
	offsetLarge = 0.15
	// offsetMedium is the diagonal spacing, roughly 8 km.
	offsetMedium = 0.08
	// farFactor widens the outer cardinal ring.
	farFactor = 1.5
)

// Plan produces the ordered search points covering a location.
//
// A normal location gets exactly one point at the center. A large area gets
// the center plus 11 offset points: four cardinal at large spacing, four
// diagonal at medium spacing and an outer cardinal ring at 1.5x the large
// spacing. A single provider call caps the results it returns, so spreading
// overlapping circles over the area raises total unique coverage while
// keeping the call count at a fixed constant.
func Plan(center models.Coordinates, baseRadius int, largeArea bool) []models.SearchPoint {
	if !largeArea {
		return []models.SearchPoint{{Center: center, Radius: clampRadius(baseRadius)}}
	}

	radius := baseRadius
	if radius < largeAreaRadius {
		radius = largeAreaRadius
	}
	radius = clampRadius(radius)

	lat, lng := center.Latitude, center.Longitude
	far := offsetLarge * farFactor

	offsets := []models.Coordinates{
		{Latitude: lat, Longitude: lng},

		// Cardinal ring
		{Latitude: lat + offsetLarge, Longitude: lng},
		{Latitude: lat - offsetLarge, Longitude: lng},
		{Latitude: lat, Longitude: lng + offsetLarge},
		{Latitude: lat, Longitude: lng - offsetLarge},

		// Diagonal ring
		{Latitude: lat + offsetMedium, Longitude: lng + offsetMedium},
		{Latitude: lat - offsetMedium, Longitude: lng - offsetMedium},
		{Latitude: lat + offsetMedium, Longitude: lng - offsetMedium},
		{Latitude: lat - offsetMedium, Longitude: lng + offsetMedium},

		// Outer cardinal ring, trimmed to keep the call budget at 12 points.
		{Latitude: lat + far, Longitude: lng},
		{Latitude: lat - far, Longitude: lng},
		{Latitude: lat, Longitude: lng + far},
	}

	points := make([]models.SearchPoint, 0, len(offsets))
	for _, c := range offsets {
		points = append(points, models.SearchPoint{Center: c, Radius: radius})
	}
	return points
}

func clampRadius(radius int) int {
	if radius > maxRadius {
		return maxRadius
	}
	return radius
}
