package zipindex

import (
	"math"

	"github.com/twpayne/go-geom"
)

// vertexMean returns the arithmetic mean of all vertices in the given
// rings as a (lat, lon) pair. This is the flat-average "centroid" the
// dashboards have always used, not an area-weighted centroid; closed
// rings count their repeated closing vertex, matching the upstream
// behavior the rest of the system is calibrated against.
func vertexMean(rings [][]geom.Coord) (LatLon, bool) {
	var sumLat, sumLon float64
	var n int
	for _, ring := range rings {
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			sumLon += c[0]
			sumLat += c[1]
			n++
		}
	}
	if n == 0 {
		return LatLon{}, false
	}
	p := LatLon{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return LatLon{}, false
	}
	return p, true
}

// centroidOf derives the representative point for a boundary geometry.
// Polygons use the vertex mean of all rings; multi-polygons use only
// their first constituent polygon; points are their own centroid.
func centroidOf(g geom.T) (LatLon, bool) {
	switch t := g.(type) {
	case *geom.Point:
		c := t.Coords()
		if len(c) < 2 {
			return LatLon{}, false
		}
		return LatLon{Lat: c[1], Lon: c[0]}, true
	case *geom.Polygon:
		return vertexMean(t.Coords())
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return LatLon{}, false
		}
		return vertexMean(t.Polygon(0).Coords())
	default:
		return LatLon{}, false
	}
}

// shoelaceArea returns the absolute planar area of a ring in squared
// degrees. The ring may be open or closed; the closing edge is implied.
func shoelaceArea(ring []geom.Coord) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if len(ring[i]) < 2 || len(ring[j]) < 2 {
			return 0
		}
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return math.Abs(sum) / 2
}

// planarArea sums the outer-ring shoelace area of every constituent
// polygon. Interior rings (holes) are ignored; the upstream county data
// does not carry them.
func planarArea(g geom.T) (float64, bool) {
	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return 0, false
		}
		a := shoelaceArea(t.LinearRing(0).Coords())
		if a == 0 {
			return 0, false
		}
		return a, true
	case *geom.MultiPolygon:
		var total float64
		for i := 0; i < t.NumPolygons(); i++ {
			p := t.Polygon(i)
			if p.NumLinearRings() == 0 {
				continue
			}
			total += shoelaceArea(p.LinearRing(0).Coords())
		}
		if total == 0 {
			return 0, false
		}
		return total, true
	default:
		return 0, false
	}
}

// pointInRing performs an even-odd ray cast of the point against a ring
// of (lon, lat) vertices.
func pointInRing(p LatLon, ring []geom.Coord) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := p.Lon, p.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if ((yi > y) != (yj > y)) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// pointInPolygon reports containment in the polygon's outer ring and
// outside all of its holes.
func pointInPolygon(p LatLon, poly *geom.Polygon) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !pointInRing(p, poly.LinearRing(0).Coords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if pointInRing(p, poly.LinearRing(i).Coords()) {
			return false
		}
	}
	return true
}

// geometryContains reports whether the point falls inside the boundary
// geometry. Multi-polygons match if any constituent contains the point;
// point geometries never contain anything.
func geometryContains(p LatLon, g geom.T) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return pointInPolygon(p, t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if pointInPolygon(p, t.Polygon(i)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
