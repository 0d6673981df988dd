// Package geo provides great-circle distance and containment checks used by
// the checkpoint unlock rules. It is pure: no state, no I/O.
package geo

import (
	"math"
	"time"
)

// earthRadiusM is the mean Earth radius for the spherical approximation.
const earthRadiusM = 6371000.0

// Point is a position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fix is a client-reported position sample.
type Fix struct {
	Point
	AccuracyM  float64   `json:"accuracyM"`
	ReportedAt time.Time `json:"reportedAt"`
}

// Trusted reports whether the fix's self-reported accuracy is within the
// given ceiling (meters). Fixes with no accuracy (zero) are trusted.
func (f Fix) Trusted(ceilingM float64) bool {
	if ceilingM <= 0 || f.AccuracyM <= 0 {
		return true
	}
	return f.AccuracyM <= ceilingM
}

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula on a spherical Earth.
func DistanceMeters(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether pos is at most radiusM meters from center.
// The boundary is inclusive: exactly radiusM counts as inside.
func WithinRadius(pos, center Point, radiusM float64) bool {
	return DistanceMeters(pos, center) <= radiusM
}

// Polygon is an ordered ring of vertices. An empty polygon contains nothing.
type Polygon []Point

// Contains reports whether p lies inside the polygon, using the even-odd
// ray casting rule. Points on an edge may land on either side; session
// containment alerts tolerate that.
func (poly Polygon) Contains(p Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := poly[i], poly[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lng < (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
