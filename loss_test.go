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
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestCoverageOrdering(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRaster(unitSquare(), cfg.GridSize, cfg.Sharpness)

	good := CircleSet{{X: 0.5, Y: 0.5, R: 0.5}}
	bad := CircleSet{{X: 0.1, Y: 0.1, R: 0.05}}

	lossGood, _ := evaluate(r, good, cfg)
	lossBad, _ := evaluate(r, bad, cfg)
	if lossGood.Coverage >= lossBad.Coverage {
		t.Errorf("well-placed circle coverage %g not below poorly-placed %g",
			lossGood.Coverage, lossBad.Coverage)
	}
	if lossGood.Coverage < 0 || lossGood.Coverage > 1 {
		t.Errorf("coverage %g outside [0,1]", lossGood.Coverage)
	}
}

func TestContainmentPenalizesEscape(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRaster(unitSquare(), cfg.GridSize, cfg.Sharpness)

	inside := CircleSet{{X: 0.5, Y: 0.5, R: 0.2}}
	escaped := CircleSet{{X: 1.1, Y: 0.5, R: 0.2}}

	lossIn, _ := evaluate(r, inside, cfg)
	lossOut, _ := evaluate(r, escaped, cfg)
	if lossIn.Containment >= lossOut.Containment {
		t.Errorf("contained circle penalty %g not below escaped circle penalty %g",
			lossIn.Containment, lossOut.Containment)
	}
}

func TestRepulsion(t *testing.T) {
	far := CircleSet{
		{X: 0.25, Y: 0.5, R: 0.1},
		{X: 0.75, Y: 0.5, R: 0.1},
	}
	if rep, _ := repulsion(far, 0.6); rep != 0 {
		t.Errorf("distant pair repulsion = %g, want 0", rep)
	}

	near := CircleSet{
		{X: 0.49, Y: 0.5, R: 0.2},
		{X: 0.51, Y: 0.5, R: 0.2},
	}
	rep, grads := repulsion(near, 0.6)
	if rep <= 0 {
		t.Fatalf("near-coincident pair repulsion = %g, want > 0", rep)
	}
	// Both circles are pushed apart, in opposite directions.
	if grads[0].X == 0 || grads[1].X == 0 {
		t.Error("a member of an offending pair received zero gradient")
	}
	if different(grads[0].X, -grads[1].X, testTolerance) {
		t.Errorf("pair gradients not opposite: %g vs %g", grads[0].X, grads[1].X)
	}
	// Descending the x gradients increases separation: the left circle
	// moves left, the right circle moves right.
	if grads[0].X <= 0 || grads[1].X >= 0 {
		t.Errorf("gradient signs push circles together: %g, %g", grads[0].X, grads[1].X)
	}
	// Shrinking either radius reduces the penalty.
	if grads[0].R <= 0 || grads[1].R <= 0 {
		t.Errorf("radius gradients %g, %g do not penalize growth", grads[0].R, grads[1].R)
	}
}

func TestRepulsionSingleCircle(t *testing.T) {
	if rep, _ := repulsion(CircleSet{{X: 0.5, Y: 0.5, R: 0.3}}, 0.6); rep != 0 {
		t.Errorf("single-circle repulsion = %g, want 0", rep)
	}
}

// TestGradient verifies the analytic gradient against central finite
// differences of the full loss.
func TestGradient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridSize = 32
	cfg.Sharpness = 40
	r := NewRaster(lShape(), cfg.GridSize, cfg.Sharpness)

	circles := CircleSet{
		{X: 0.3, Y: 0.3, R: 0.22},
		{X: 0.4, Y: 0.45, R: 0.18}, // overlaps the first to exercise repulsion
		{X: 0.72, Y: 0.28, R: 0.12},
	}
	_, grads := evaluate(r, circles, cfg)

	const h = 1e-6
	lossAt := func(s CircleSet) float64 {
		l, _ := evaluate(r, s, cfg)
		return l.Total
	}
	check := func(name string, got float64, perturb func(CircleSet, float64)) {
		plus := circles.Copy()
		perturb(plus, h)
		minus := circles.Copy()
		perturb(minus, -h)
		want := (lossAt(plus) - lossAt(minus)) / (2 * h)
		if !scalar.EqualWithinAbsOrRel(got, want, 1e-6, 1e-3) {
			t.Errorf("%s: analytic %g, finite difference %g", name, got, want)
		}
	}
	for i := range circles {
		i := i
		check("X", grads[i].X, func(s CircleSet, d float64) { s[i].X += d })
		check("Y", grads[i].Y, func(s CircleSet, d float64) { s[i].Y += d })
		check("R", grads[i].R, func(s CircleSet, d float64) { s[i].R += d })
	}
}

func TestLossTotalIsWeightedSum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoverageWeight = 2
	cfg.ContainmentWeight = 3
	cfg.RepulsionWeight = 4
	r := NewRaster(unitSquare(), cfg.GridSize, cfg.Sharpness)
	circles := CircleSet{
		{X: 0.4, Y: 0.5, R: 0.3},
		{X: 0.5, Y: 0.5, R: 0.3},
	}
	loss, _ := evaluate(r, circles, cfg)
	want := 2*loss.Coverage + 3*loss.Containment + 4*loss.Repulsion
	if math.Abs(loss.Total-want) > 1e-12 {
		t.Errorf("total %g, want weighted sum %g", loss.Total, want)
	}
}
