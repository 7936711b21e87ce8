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
	"runtime"
	"sync"

	"github.com/ctessum/geom"
)

// Result describes a finalized packing.
type Result struct {
	// N is the number of circles.
	N int

	// Circles is the finalized circle set, in the same normalized
	// coordinate space as the input polygon.
	Circles CircleSet

	// Loss is the loss evaluated at the finalized circles.
	Loss Loss

	// Sweep holds the per-count outcomes when automatic count selection
	// ran, ordered by candidate count; it is nil for fixed-count runs.
	Sweep []SweepPoint
}

// SweepPoint is the outcome of one candidate count in a selection sweep.
type SweepPoint struct {
	N    int
	Loss Loss
	Err  error // non-nil if this candidate's run failed

	circles CircleSet
}

// Cover approximates poly with circles. If n is positive, exactly n
// circles are fitted; otherwise SelectCount chooses the count
// automatically from the configured candidate range.
func Cover(ctx context.Context, poly geom.Polygon, n int, cfg *Config) (*Result, error) {
	if n > 0 {
		circles, loss, err := Fit(ctx, poly, n, cfg)
		if err != nil {
			return nil, err
		}
		return &Result{N: n, Circles: circles, Loss: loss}, nil
	}
	return SelectCount(ctx, poly, cfg)
}

// SelectCount runs one optimization per candidate circle count in
// [cfg.MinCircles, cfg.MaxCircles] and picks the count at the elbow of
// the loss-versus-count curve, the point of diminishing marginal
// improvement. Candidate runs are independent and execute concurrently
// across cfg.Workers workers; each run owns its circle set while the
// polygon mask is computed once and shared read-only. A failed candidate
// is recorded in the sweep and does not abort the other candidates.
//
// The result is deterministic: every candidate uses the same seeded
// initialization, and worker scheduling cannot affect which candidate is
// chosen.
func SelectCount(ctx context.Context, poly geom.Polygon, cfg *Config) (*Result, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if err := CheckPolygon(poly); err != nil {
		return nil, err
	}

	raster := NewRaster(poly, cfg.GridSize, cfg.Sharpness)
	sweep := make([]SweepPoint, cfg.MaxCircles-cfg.MinCircles+1)

	nprocs := cfg.Workers
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	if nprocs > len(sweep) {
		nprocs = len(sweep)
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < len(sweep); i += nprocs {
				n := cfg.MinCircles + i
				circles, loss, err := fitRaster(ctx, raster, poly, n, cfg)
				sweep[i] = SweepPoint{N: n, Loss: loss, Err: err, circles: circles}
			}
		}(pp)
	}
	wg.Wait()

	chosen := elbow(sweep, cfg.ElbowImprovement)
	if chosen < 0 {
		// Every candidate failed; surface the first failure.
		for _, s := range sweep {
			if s.Err != nil {
				return nil, fmt.Errorf("circlecover: all candidate counts failed: %w", s.Err)
			}
		}
		return nil, fmt.Errorf("circlecover: no candidate counts to evaluate")
	}
	return &Result{
		N:       sweep[chosen].N,
		Circles: sweep[chosen].circles,
		Loss:    sweep[chosen].Loss,
		Sweep:   sweep,
	}, nil
}

// elbow picks the index of the best candidate in the sweep, skipping
// failed candidates. The rule, applied to the successful candidates in
// increasing count order:
//
//  1. Take the first count whose relative improvement over the previous
//     count, (L(n₋) − L(n)) / L(n₋), falls below the improvement
//     threshold; the previous count is the elbow, since later counts buy
//     less than the threshold fraction per circle.
//  2. If every step improves by more than the threshold, take the count
//     with the largest discrete curvature L(n₋) − 2L(n) + L(n₊).
//  3. With fewer than three successful candidates and no sub-threshold
//     step, take the last (loss can only improve with more circles).
//
// It returns -1 if no candidate succeeded.
func elbow(sweep []SweepPoint, improvement float64) int {
	// ok holds indexes into sweep of the successful candidates.
	var ok []int
	for i, s := range sweep {
		if s.Err == nil {
			ok = append(ok, i)
		}
	}
	if len(ok) == 0 {
		return -1
	}
	if len(ok) == 1 {
		return ok[0]
	}

	for i := 1; i < len(ok); i++ {
		prev := sweep[ok[i-1]].Loss.Total
		cur := sweep[ok[i]].Loss.Total
		if prev <= 0 {
			return ok[i-1]
		}
		if (prev-cur)/prev < improvement {
			return ok[i-1]
		}
	}

	if len(ok) >= 3 {
		best := ok[1]
		bestCurv := 0.
		for i := 1; i < len(ok)-1; i++ {
			curv := sweep[ok[i-1]].Loss.Total - 2*sweep[ok[i]].Loss.Total +
				sweep[ok[i+1]].Loss.Total
			if curv > bestCurv {
				bestCurv = curv
				best = ok[i]
			}
		}
		return best
	}
	return ok[len(ok)-1]
}
