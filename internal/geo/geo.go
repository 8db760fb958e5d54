// Package geo turns recorded vehicle positions into track geometry and, when
// a run is anchored to a real-world origin, into WGS84 coordinates.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/airace/carcontrol/pkg/core"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrShortTrack is returned when a track has fewer than two distinct points.
var ErrShortTrack = errors.New("track needs at least two distinct points")

// ParseOrigin parses a "long,lat" string into a GeoOrigin.
func ParseOrigin(coords string) (core.GeoOrigin, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.GeoOrigin{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.GeoOrigin{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.GeoOrigin{}, ErrInvalidCoordinates
	}
	if long < -180 || long > 180 || lat < -85 || lat > 85 {
		return core.GeoOrigin{}, fmt.Errorf("%w: %v,%v out of range", ErrInvalidCoordinates, long, lat)
	}
	return core.GeoOrigin{Longitude: long, Latitude: lat}, nil
}

// Trajectory builds the ground track (X east, Z north) of a run as a LineString.
// Consecutive duplicate points, such as ticks spent stationary, are dropped.
func Trajectory(points []core.Position3D) (geom.LineString, error) {
	return lineString(points, func(p core.Position3D) (float64, float64) {
		return p.X, p.Z
	})
}

// TrajectoryWKT is Trajectory rendered as WKT.
func TrajectoryWKT(points []core.Position3D) (string, error) {
	ls, err := Trajectory(points)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

func lineString(points []core.Position3D, project func(core.Position3D) (float64, float64)) (geom.LineString, error) {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		x, y := project(p)
		if n := len(flat); n >= 2 && flat[n-2] == x && flat[n-1] == y {
			continue
		}
		flat = append(flat, x, y)
	}
	if len(flat) < 4 {
		return geom.LineString{}, ErrShortTrack
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY)), nil
}
