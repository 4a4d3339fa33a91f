package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Marker coordinates are carried as WGS84 (EPSG:4326) longitude/latitude
// pairs end to end. The tile-based renderer works in Web Mercator
// (EPSG:3857), so frames sent to it also carry the projected center.

// MatchTolerance is the per-axis degree tolerance used when resolving a
// just-created report from raw coordinates.
const MatchTolerance = 0.0001

// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParseLonLat parses a "longitude,latitude" string into a point.
func ParseLonLat(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, ErrInvalidCoordinates
	}
	p := orb.Point{lon, lat}
	if !Valid(p) {
		return orb.Point{}, ErrInvalidCoordinates
	}
	return p, nil
}

// Valid reports whether both axes are finite degree values in range.
func Valid(p orb.Point) bool {
	lon, lat := p.Lon(), p.Lat()
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// WithinTolerance reports whether two points are within tol degrees of each
// other on each axis independently.
func WithinTolerance(a, b orb.Point, tol float64) bool {
	return math.Abs(a.Lon()-b.Lon()) < tol && math.Abs(a.Lat()-b.Lat()) < tol
}

// WebMercator projects a 4326 lon/lat point to a 3857 point for the tile
// renderer.
func WebMercator(p orb.Point) geom.Point {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(p.Lon(), p.Lat(), 0)
	return geom.NewPoint(geom.Coordinates{
		XY: geom.XY{X: x, Y: y},
	})
}
