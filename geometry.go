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

	"github.com/ctessum/geom"
)

// Circle is a circle in the normalized coordinate space of the input
// polygon.
type Circle struct {
	X, Y float64 // center
	R    float64 // radius
}

// Center returns the center of the circle as a point.
func (c Circle) Center() geom.Point {
	return geom.Point{X: c.X, Y: c.Y}
}

// CircleSet is an ordered collection of circles. A CircleSet is owned by a
// single optimization run and must not be shared across concurrent runs.
type CircleSet []Circle

// Copy returns a deep copy of s.
func (s CircleSet) Copy() CircleSet {
	o := make(CircleSet, len(s))
	copy(o, s)
	return o
}

// minPolygonArea is the smallest polygon area considered usable; smaller
// areas cannot be resolved on the rasterization grid at any supported
// resolution.
const minPolygonArea = 1e-9

// CheckPolygon determines whether p can be used as an optimization target.
// It returns an InvalidGeometryError if p has fewer than three distinct
// vertices, has effectively zero area, or self-intersects.
func CheckPolygon(p geom.Polygonal) error {
	if p == nil {
		return &InvalidGeometryError{Reason: "polygon is nil"}
	}
	polys := p.Polygons()
	if len(polys) == 0 {
		return &InvalidGeometryError{Reason: "polygon has no rings"}
	}
	for _, poly := range polys {
		for _, ring := range poly {
			if n := distinctVertices(ring); n < 3 {
				return &InvalidGeometryError{
					Reason: "a polygon ring has fewer than 3 distinct vertices"}
			}
			if ringSelfIntersects(ring) {
				return &InvalidGeometryError{Reason: "polygon is self-intersecting"}
			}
		}
	}
	if p.Area() < minPolygonArea {
		return &InvalidGeometryError{Reason: "polygon has zero area"}
	}
	return nil
}

// distinctVertices counts the distinct vertices in a ring, ignoring a
// closing vertex that repeats the first one.
func distinctVertices(ring []geom.Point) int {
	n := len(ring)
	if n > 1 && ring[n-1].Equals(ring[0]) {
		n--
	}
	count := 0
	for i := 0; i < n; i++ {
		dup := false
		for j := 0; j < i; j++ {
			if ring[i].Equals(ring[j]) {
				dup = true
				break
			}
		}
		if !dup {
			count++
		}
	}
	return count
}

// ringSelfIntersects reports whether any two non-adjacent edges of the
// ring properly cross each other.
func ringSelfIntersects(ring []geom.Point) bool {
	n := len(ring)
	if n > 1 && ring[n-1].Equals(ring[0]) {
		n--
	}
	if n < 4 { // a triangle cannot self-intersect
		return false
	}
	for i := 0; i < n; i++ {
		a1 := ring[i]
		a2 := ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 { // adjacent through the closure
				continue
			}
			b1 := ring[j]
			b2 := ring[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports whether segments a1-a2 and b1-b2 properly cross,
// i.e. intersect at a single interior point of both.
func segmentsCross(a1, a2, b1, b2 geom.Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// cross gives the z-component of (b-a)×(p-a).
func cross(a, b, p geom.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// finite reports whether every parameter of every circle in s is finite.
func (s CircleSet) finite() bool {
	for _, c := range s {
		if math.IsNaN(c.X) || math.IsInf(c.X, 0) ||
			math.IsNaN(c.Y) || math.IsInf(c.Y, 0) ||
			math.IsNaN(c.R) || math.IsInf(c.R, 0) {
			return false
		}
	}
	return true
}
