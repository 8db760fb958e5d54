package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/airace/carcontrol/pkg/core"
)

// Georeferencer maps local arena metres onto WGS84 around an origin. Offsets
// are applied in Web Mercator (EPSG:3857) scaled by the origin's latitude, which
// is accurate to well under a metre across a race track.
type Georeferencer struct {
	originX, originY float64
	scale            float64
	toLonLat         func(a, b, c float64) (float64, float64, float64)
}

// NewGeoreferencer anchors the local origin at o.
func NewGeoreferencer(o core.GeoOrigin) *Georeferencer {
	epsg := wgs84.EPSG()
	toMerc := epsg.Transform(4326, 3857)
	x, y, _ := toMerc(o.Longitude, o.Latitude, 0)

	return &Georeferencer{
		originX:  x,
		originY:  y,
		scale:    1 / math.Cos(o.Latitude*math.Pi/180),
		toLonLat: epsg.Transform(3857, 4326),
	}
}

// LonLat returns the WGS84 longitude and latitude of a local position.
func (g *Georeferencer) LonLat(p core.Position3D) (lon, lat float64) {
	lon, lat, _ = g.toLonLat(g.originX+p.X*g.scale, g.originY+p.Z*g.scale, 0)
	return lon, lat
}

// Point returns a local position as a WGS84 point carrying its height as Z.
func (g *Georeferencer) Point(p core.Position3D) geom.Point {
	lon, lat := g.LonLat(p)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Z:    p.Y,
		Type: geom.CoordinatesType(geom.DimXYZ),
	})
}

// Trajectory is the run's ground track in WGS84 longitude/latitude.
func (g *Georeferencer) Trajectory(points []core.Position3D) (geom.LineString, error) {
	return lineString(points, g.LonLat)
}
