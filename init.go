/*
Copyright © 2024 the circlecover authors.
This file is part of circlecover.

circlecover is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

circlecover is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with circlecover.  If not, see <http://www.gnu.org/licenses/>.
*/

package circlecover

import (
	"math"
	"math/rand"

	"github.com/ctessum/geom"
)

// placeAttempts bounds the rejection sampling per circle center. A simple
// polygon occupies a reasonable fraction of its bounding box, so failing
// this many draws in a row indicates a geometry the sampler cannot
// handle.
const placeAttempts = 10000

// Initialize produces n seed circles for poly: centers sampled uniformly
// inside the polygon (never outside it) and equal radii scaled to the
// polygon area divided by n, so the initial circles neither saturate the
// loss surface with overlap nor start vanishingly small.
//
// Sampling is deterministic for a given cfg.Seed. The geometry is
// validated first; degenerate polygons produce an InvalidGeometryError
// before any seed is generated.
func Initialize(poly geom.Polygon, n int, cfg *Config) (CircleSet, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, &ConfigurationError{"n", "circle count must be at least 1"}
	}
	if err := CheckPolygon(poly); err != nil {
		return nil, err
	}

	area := poly.Area()
	radius := cfg.InitRadiusScale * math.Sqrt(area/(float64(n)*math.Pi))
	if radius < cfg.MinRadius {
		radius = cfg.MinRadius
	}

	// Offsetting the seed by n gives each candidate count in a selection
	// sweep an independent starting layout while staying deterministic.
	rng := rand.New(rand.NewSource(cfg.Seed + int64(n)))
	b := poly.Bounds()
	w := b.Max.X - b.Min.X
	h := b.Max.Y - b.Min.Y

	circles := make(CircleSet, n)
	for i := range circles {
		placed := false
		for attempt := 0; attempt < placeAttempts; attempt++ {
			pt := geom.Point{
				X: b.Min.X + rng.Float64()*w,
				Y: b.Min.Y + rng.Float64()*h,
			}
			if pt.Within(poly) == geom.Inside {
				circles[i] = Circle{X: pt.X, Y: pt.Y, R: radius}
				placed = true
				break
			}
		}
		if !placed {
			return nil, &InvalidGeometryError{
				Reason: "could not place a seed center inside the polygon"}
		}
	}
	return circles, nil
}
