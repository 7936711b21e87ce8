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

	"gonum.org/v1/gonum/floats"
)

// Loss holds the total optimization objective and its weighted terms.
type Loss struct {
	Total float64

	// Coverage is the soft intersection-over-union mismatch between the
	// circle union mask and the polygon mask: 0 for a perfect match, 1
	// for no overlap. It penalizes both uncovered polygon area and circle
	// area outside the polygon.
	Coverage float64

	// Containment is the mean, over circles, of the fraction of each
	// circle's mask mass that falls outside the polygon. It is measured
	// independently per circle so that an escaped circle is pushed inward
	// even when overlapping coverage hides the effect in the union mask.
	Containment float64

	// Repulsion is the mean squared center-distance shortfall over all
	// circle pairs closer than RepulsionScale·(Rₐ+R_b). It discourages
	// circles from collapsing onto nearly identical positions.
	Repulsion float64
}

const (
	// maskEps avoids division by zero in the per-circle containment
	// normalization and in the exclusive-product union gradient.
	maskEps = 1e-12
	// distEps avoids an undefined gradient direction when a cell center
	// or another circle center coincides with a circle center.
	distEps = 1e-9
)

// evaluate computes the loss for circles rasterized against r, together
// with its gradient with respect to every circle parameter. The gradient
// is returned as one Circle per input circle holding ∂L/∂X, ∂L/∂Y, and
// ∂L/∂R. All derivatives are analytic; see the term computations below.
func evaluate(r *Raster, circles CircleSet, cfg *Config) (Loss, []Circle) {
	n := len(circles)
	masks := r.CircleMasks(circles)
	p := r.PolygonMask().Elements
	cells := len(p)

	// Soft union u = 1−q, q = Π(1−sᵢ), kept per cell.
	q := make([]float64, cells)
	for i := range q {
		q[i] = 1
	}
	for _, m := range masks {
		for i, s := range m.Elements {
			q[i] *= 1 - s
		}
	}

	// Coverage term: 1 − I/U with I = Σ u·p and U = Σ (u + p − u·p).
	var I, U float64
	for i, qi := range q {
		u := 1 - qi
		I += u * p[i]
		U += u + p[i] - u*p[i]
	}
	var cov float64
	if U > 0 {
		cov = 1 - I/U
	}

	// Per-circle containment: outside mass over total mass.
	outside := make([]float64, n) // Σ s·(1−p) per circle
	total := make([]float64, n)   // Σ s per circle
	for c, m := range masks {
		for i, s := range m.Elements {
			outside[c] += s * (1 - p[i])
		}
		total[c] = floats.Sum(m.Elements)
	}
	var cont float64
	for c := range circles {
		cont += outside[c] / (total[c] + maskEps)
	}
	cont /= float64(n)

	rep, repGrads := repulsion(circles, cfg.RepulsionScale)

	loss := Loss{
		Coverage:    cov,
		Containment: cont,
		Repulsion:   rep,
	}
	loss.Total = cfg.CoverageWeight*cov + cfg.ContainmentWeight*cont +
		cfg.RepulsionWeight*rep

	// Backpropagate. For each cell, ∂cov/∂u is shared by all circles;
	// ∂u/∂sᵢ is the product of (1−s) over the other circles.
	covFactor := make([]float64, cells)
	if U > 0 {
		for i := range covFactor {
			covFactor[i] = -cfg.CoverageWeight * (p[i]*U - I*(1-p[i])) / (U * U)
		}
	}

	grads := make([]Circle, n)
	k := r.sharpness
	size := r.size
	dx := r.dx
	for c, circle := range circles {
		m := masks[c].Elements
		t := total[c] + maskEps
		o := outside[c]
		for i := 0; i < size; i++ {
			y := r.y0 + (float64(i)+0.5)*dx
			for j := 0; j < size; j++ {
				idx := i*size + j
				s := m[idx]
				ds := k * s * (1 - s) // ∂s/∂R; center partials add direction
				if ds == 0 {
					continue
				}

				// ∂L/∂s for this circle at this cell: the union coverage
				// chain plus the per-circle containment chain.
				dLds := covFactor[idx] * q[idx] / math.Max(1-s, maskEps)
				dLds += cfg.ContainmentWeight / float64(n) *
					((1-p[idx])*t - o) / (t * t)
				if dLds == 0 {
					continue
				}

				x := r.x0 + (float64(j)+0.5)*dx
				d := math.Max(math.Hypot(x-circle.X, y-circle.Y), distEps)
				grads[c].R += dLds * ds
				grads[c].X += dLds * ds * (x - circle.X) / d
				grads[c].Y += dLds * ds * (y - circle.Y) / d
			}
		}
		grads[c].X += cfg.RepulsionWeight * repGrads[c].X
		grads[c].Y += cfg.RepulsionWeight * repGrads[c].Y
		grads[c].R += cfg.RepulsionWeight * repGrads[c].R
	}
	return loss, grads
}

// repulsion computes the pairwise repulsion penalty and its gradient.
// A pair contributes (β(Rₐ+R_b) − D)² when its center distance D is below
// β(Rₐ+R_b); the gradient is nonzero for both members of the pair. The sum
// runs over all pairs and is normalized by the pair count.
func repulsion(circles CircleSet, scale float64) (float64, []Circle) {
	n := len(circles)
	grads := make([]Circle, n)
	if n < 2 {
		return 0, grads
	}
	pairs := float64(n*(n-1)) / 2
	var sum float64
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			dx := circles[a].X - circles[b].X
			dy := circles[a].Y - circles[b].Y
			d := math.Max(math.Hypot(dx, dy), distEps)
			minD := scale * (circles[a].R + circles[b].R)
			if d >= minD {
				continue
			}
			v := minD - d
			sum += v * v

			// ∂(v²)/∂D = −2v; ∂D/∂Xₐ = dx/D.
			dd := -2 * v / pairs
			grads[a].X += dd * dx / d
			grads[a].Y += dd * dy / d
			grads[b].X -= dd * dx / d
			grads[b].Y -= dd * dy / d
			dr := 2 * v * scale / pairs
			grads[a].R += dr
			grads[b].R += dr
		}
	}
	return sum / pairs, grads
}
