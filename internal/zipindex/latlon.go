package zipindex

import "math"

// earthRadiusMiles is the mean Earth radius in statute miles.
const earthRadiusMiles = 3958.7613

// LatLon is a geographic coordinate pair in WGS84 degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceMiles returns the great-circle distance between two points in
// statute miles (haversine). Every proximity computation in the system
// goes through this function so that radius semantics stay consistent
// between ZIP neighbor queries and facility filtering.
func DistanceMiles(a, b LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// BBox is a latitude/longitude rectangle bounding the service area.
type BBox struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat" mapstructure:"max_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon" mapstructure:"max_lon"`
}

// Pad returns a copy of the box expanded by deg degrees on every side.
func (b BBox) Pad(deg float64) BBox {
	return BBox{
		MinLat: b.MinLat - deg,
		MaxLat: b.MaxLat + deg,
		MinLon: b.MinLon - deg,
		MaxLon: b.MaxLon + deg,
	}
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BBox) Contains(p LatLon) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
