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
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ctessum/geom"
)

// The numerical safety domain for circle centers. The polygon lives in
// the unit square; a center leaving this box means the update step
// diverged.
const (
	safetyMin = -0.5
	safetyMax = 1.5
)

// Packer holds the state of one circle-packing optimization run. It is
// created by NewPacker and driven by Run; it must not be shared across
// concurrent runs.
type Packer struct {
	// Circles is the current circle set. It is mutated in place every
	// iteration and holds the finalized result once Run returns.
	Circles CircleSet

	// Loss is the loss evaluated at the current circle parameters.
	Loss Loss

	// Iteration counts completed gradient-descent iterations.
	Iteration int

	// Done is set when the run has converged or exhausted its iteration
	// budget.
	Done bool

	raster *Raster
	cfg    *Config
	grads  []Circle
}

// A PackerManipulator is a function that operates on the state of a
// packing run. A sequence of manipulators is applied once per iteration.
type PackerManipulator func(*Packer) error

// NewPacker creates an optimization run for the given initial circles,
// rasterized against r. The configuration and the initial circles are
// validated eagerly; the circle set is copied so the caller's slice is
// not mutated.
func NewPacker(r *Raster, circles CircleSet, cfg *Config) (*Packer, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if len(circles) < 1 {
		return nil, &ConfigurationError{"circles", "at least one circle is required"}
	}
	if r.PolygonMask().Sum() == 0 {
		return nil, &InvalidGeometryError{
			Reason: "polygon does not cover any grid cell; " +
				"it may be smaller than the grid resolution"}
	}
	for _, c := range circles {
		if c.R <= 0 {
			return nil, &ConfigurationError{"circles", "all radii must be positive"}
		}
	}
	return &Packer{
		Circles: circles.Copy(),
		raster:  r,
		cfg:     cfg,
	}, nil
}

// Descend returns a manipulator that evaluates the loss and its gradient
// at the current circle parameters and applies one gradient-descent
// update. Radii are clamped to the configured minimum after the update so
// that no non-positive radius is ever evaluated; a non-finite parameter
// or a center leaving the safety domain aborts the run with a
// NumericalDivergenceError.
func Descend() PackerManipulator {
	return func(p *Packer) error {
		p.Loss, p.grads = evaluate(p.raster, p.Circles, p.cfg)
		if math.IsNaN(p.Loss.Total) || math.IsInf(p.Loss.Total, 0) {
			return &NumericalDivergenceError{p.Iteration, "loss is not finite"}
		}
		lr := p.cfg.LearningRate
		for i := range p.Circles {
			p.Circles[i].X -= lr * p.grads[i].X
			p.Circles[i].Y -= lr * p.grads[i].Y
			p.Circles[i].R -= lr * p.grads[i].R
			if p.Circles[i].R < p.cfg.MinRadius {
				p.Circles[i].R = p.cfg.MinRadius
			}
		}
		if !p.Circles.finite() {
			return &NumericalDivergenceError{p.Iteration, "circle parameters are not finite"}
		}
		for _, c := range p.Circles {
			if c.X < safetyMin || c.X > safetyMax || c.Y < safetyMin || c.Y > safetyMax {
				return &NumericalDivergenceError{p.Iteration,
					fmt.Sprintf("circle center (%g, %g) left the safety domain", c.X, c.Y)}
			}
		}
		p.Iteration++
		return nil
	}
}

// ConvergenceCheck returns a manipulator that sets Done when the loss
// improvement between consecutive iterations has stayed below the
// configured tolerance for a full convergence window, or when the
// iteration budget is exhausted. Requiring a sustained window avoids
// stopping on transient plateaus.
func ConvergenceCheck() PackerManipulator {
	prev := math.Inf(1)
	belowTol := 0
	return func(p *Packer) error {
		if improvement := prev - p.Loss.Total; improvement < p.cfg.ConvergenceTolerance {
			belowTol++
		} else {
			belowTol = 0
		}
		prev = p.Loss.Total
		if belowTol >= p.cfg.ConvergenceWindow || p.Iteration >= p.cfg.MaxIterations {
			p.Done = true
		}
		return nil
	}
}

// LogProgress returns a manipulator that writes run status to w.
func LogProgress(w io.Writer) PackerManipulator {
	startTime := time.Now()
	return func(p *Packer) error {
		fmt.Fprintf(w, "Iteration %-4d  walltime=%5.3gs  loss=%.6g  "+
			"coverage=%.4g  containment=%.4g  repulsion=%.4g\n",
			p.Iteration, time.Since(startTime).Seconds(), p.Loss.Total,
			p.Loss.Coverage, p.Loss.Containment, p.Loss.Repulsion)
		return nil
	}
}

// Run drives the optimization until convergence or the iteration budget,
// applying Descend, any extra manipulators, and ConvergenceCheck each
// iteration. Cancellation is cooperative: ctx is checked at the top of
// every iteration. After the loop, the loss is re-evaluated at the final
// parameters so that Loss always corresponds to Circles.
func (p *Packer) Run(ctx context.Context, extra ...PackerManipulator) error {
	manipulators := append([]PackerManipulator{Descend()}, extra...)
	manipulators = append(manipulators, ConvergenceCheck())
	for !p.Done {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, m := range manipulators {
			if err := m(p); err != nil {
				return err
			}
		}
	}
	p.Loss, _ = evaluate(p.raster, p.Circles, p.cfg)
	return nil
}

// Fit optimizes n circles against poly, handling initialization
// internally. It validates the geometry and configuration before any
// optimization starts and returns the finalized circles with their loss.
func Fit(ctx context.Context, poly geom.Polygon, n int, cfg *Config, extra ...PackerManipulator) (CircleSet, Loss, error) {
	if err := cfg.Check(); err != nil {
		return nil, Loss{}, err
	}
	if err := CheckPolygon(poly); err != nil {
		return nil, Loss{}, err
	}
	r := NewRaster(poly, cfg.GridSize, cfg.Sharpness)
	return fitRaster(ctx, r, poly, n, cfg, extra...)
}

// fitRaster is Fit for a pre-built rasterizer, so that a count-selection
// sweep can share one polygon mask across runs.
func fitRaster(ctx context.Context, r *Raster, poly geom.Polygon, n int, cfg *Config, extra ...PackerManipulator) (CircleSet, Loss, error) {
	circles, err := Initialize(poly, n, cfg)
	if err != nil {
		return nil, Loss{}, err
	}
	p, err := NewPacker(r, circles, cfg)
	if err != nil {
		return nil, Loss{}, err
	}
	if err := p.Run(ctx, extra...); err != nil {
		return nil, Loss{}, err
	}
	return p.Circles, p.Loss, nil
}
