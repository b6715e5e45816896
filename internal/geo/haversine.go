package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all great-circle math.
const EarthRadiusKm = 6371.0

// Ghana reference coordinates.
const (
	GhanaCenterLat = 7.9465
	GhanaCenterLng = -1.0232

	// AccraLat/Lng is the hub used for rotation planning.
	AccraLat = 5.6037
	AccraLng = -0.1870
)

// BoundingBox is a lat/lng rectangle.
type BoundingBox struct {
	North float64
	South float64
	East  float64
	West  float64
}

// GhanaBounds covers the whole country.
var GhanaBounds = BoundingBox{North: 11.17, South: 4.74, East: 1.20, West: -3.26}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// Distance returns the great-circle distance in km between two points
// given in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	return distanceRad(
		lat1*math.Pi/180, lng1*math.Pi/180,
		lat2*math.Pi/180, lng2*math.Pi/180,
	)
}

func distanceRad(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat2 - lat1
	dLng := lng2 - lng1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}
