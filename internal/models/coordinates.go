package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// SearchPoint is a single provider query target: a bias circle around a center.
// Search points are ephemeral, produced per search invocation by the planner.
type SearchPoint struct {
	Center Coordinates // Center of the circular location bias.
	Radius int         // Radius of the bias circle in meters, always positive.
}
