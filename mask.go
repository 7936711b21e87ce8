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
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/sparse"
)

// maskPad is the fraction of the polygon's bounding-box extent added as
// a margin on every side of the rasterization grid. The margin
// guarantees that cells outside the polygon always exist, so the
// containment and coverage terms can push back against circles growing
// past the polygon boundary even when the polygon fills its bounding
// box.
const maskPad = 0.125

// Raster discretizes the padded bounding box of a polygon onto a
// fixed-resolution grid and produces occupancy masks for the polygon and
// for candidate circles. The polygon mask is computed once at
// construction and cached; circle masks are smooth functions of the
// circle parameters so that gradients can be taken through them. A
// Raster is immutable after creation and may be shared (read-only) by
// concurrent optimization runs.
type Raster struct {
	size      int     // cells along each grid edge
	dx        float64 // cell edge length
	x0, y0    float64 // coordinates of the grid's lower-left corner
	sharpness float64 // sigmoid steepness for circle masks

	index *rtree.Rtree       // polygon parts, for cell-center lookups
	mask  *sparse.DenseArray // cached polygon occupancy, shape (size, size)
}

// NewRaster creates a rasterizer for poly on a size×size grid spanning
// the polygon's bounding box padded by maskPad on every side. sharpness
// controls the steepness of the sigmoid edge of the circle masks.
func NewRaster(poly geom.Polygonal, size int, sharpness float64) *Raster {
	b := poly.Bounds()
	extent := b.Max.X - b.Min.X
	if dy := b.Max.Y - b.Min.Y; dy > extent {
		extent = dy
	}
	pad := maskPad * extent
	r := &Raster{
		size:      size,
		dx:        (extent + 2*pad) / float64(size),
		x0:        b.Min.X - pad,
		y0:        b.Min.Y - pad,
		sharpness: sharpness,
		index:     rtree.NewTree(25, 50),
	}
	for _, p := range poly.Polygons() {
		r.index.Insert(p)
	}
	r.mask = r.rasterizePolygon()
	return r
}

// Size returns the grid edge length in cells.
func (r *Raster) Size() int { return r.size }

// rasterizePolygon fills the polygon occupancy grid by testing each cell
// center against the polygon parts that overlap it. Cell centers on the
// polygon edge count as inside.
func (r *Raster) rasterizePolygon() *sparse.DenseArray {
	mask := sparse.ZerosDense(r.size, r.size)
	for i := 0; i < r.size; i++ {
		y := r.y0 + (float64(i)+0.5)*r.dx
		for j := 0; j < r.size; j++ {
			pt := geom.Point{X: r.x0 + (float64(j)+0.5)*r.dx, Y: y}
			for _, pI := range r.index.SearchIntersect(pt.Bounds()) {
				if pt.Within(pI.(geom.Polygon)) != geom.Outside {
					mask.Set(1, i, j)
					break
				}
			}
		}
	}
	return mask
}

// PolygonMask returns the cached occupancy grid of the target polygon.
// The returned array must not be modified.
func (r *Raster) PolygonMask() *sparse.DenseArray {
	return r.mask
}

// CircleMask returns the soft occupancy grid of a single circle: each cell
// holds σ(sharpness·(R−d)) where d is the distance from the cell center to
// the circle center. Values transition smoothly from ~1 inside the circle
// to ~0 outside, so the mask is differentiable in X, Y, and R.
func (r *Raster) CircleMask(c Circle) *sparse.DenseArray {
	mask := sparse.ZerosDense(r.size, r.size)
	for i := 0; i < r.size; i++ {
		y := r.y0 + (float64(i)+0.5)*r.dx
		for j := 0; j < r.size; j++ {
			x := r.x0 + (float64(j)+0.5)*r.dx
			d := math.Hypot(x-c.X, y-c.Y)
			mask.Set(sigmoid(r.sharpness*(c.R-d)), i, j)
		}
	}
	return mask
}

// CircleMasks returns the soft occupancy grid of each circle in s.
func (r *Raster) CircleMasks(s CircleSet) []*sparse.DenseArray {
	masks := make([]*sparse.DenseArray, len(s))
	for i, c := range s {
		masks[i] = r.CircleMask(c)
	}
	return masks
}

// CombinedMask combines per-circle masks into a soft union,
// 1 − Π(1−sᵢ). Unlike an element-wise max, the product form keeps a
// nonzero gradient flowing to every circle even where another circle
// already covers a cell.
func (r *Raster) CombinedMask(masks []*sparse.DenseArray) *sparse.DenseArray {
	union := sparse.ZerosDense(r.size, r.size)
	for i := range union.Elements {
		q := 1.
		for _, m := range masks {
			q *= 1 - m.Elements[i]
		}
		union.Elements[i] = 1 - q
	}
	return union
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
