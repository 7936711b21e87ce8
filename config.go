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

// Config holds the tunable parameters for a circle-packing run. The zero
// value is not usable; start from DefaultConfig and override fields as
// needed. The same Config may be shared by concurrent runs because it is
// never modified after creation.
type Config struct {
	// LearningRate is the gradient-descent step size in normalized
	// coordinate units.
	LearningRate float64

	// MaxIterations caps the number of gradient-descent iterations in a
	// single optimization run.
	MaxIterations int

	// ConvergenceTolerance is the loss improvement below which an
	// iteration counts toward convergence. The run stops once
	// ConvergenceWindow consecutive iterations improve by less than this,
	// so transient plateaus do not end the run early.
	ConvergenceTolerance float64

	// ConvergenceWindow is the number of consecutive low-improvement
	// iterations required to declare convergence.
	ConvergenceWindow int

	// GridSize is the edge length, in cells, of the square rasterization
	// grid spanning the polygon's padded bounding box. It trades accuracy
	// for speed and is fixed for an entire run.
	GridSize int

	// Sharpness controls the steepness of the sigmoid used for the soft
	// circle masks. Larger values give crisper mask edges but steeper,
	// more localized gradients.
	Sharpness float64

	// CoverageWeight, ContainmentWeight, and RepulsionWeight weight the
	// three loss terms. Containment and repulsion are soft penalties:
	// they discourage circles escaping the polygon or collapsing onto
	// each other but do not strictly forbid either.
	CoverageWeight    float64
	ContainmentWeight float64
	RepulsionWeight   float64

	// RepulsionScale scales the sum of two circles' radii to give the
	// center distance below which the pair is penalized.
	RepulsionScale float64

	// InitRadiusScale scales the equal-area seed radius
	// sqrt(polygon area / (n π)) used by the initializer.
	InitRadiusScale float64

	// MinRadius is the smallest radius a circle is allowed to reach.
	// Radii are clamped here after every update so that the masks never
	// degenerate to zero gradient.
	MinRadius float64

	// MinCircles and MaxCircles bound the candidate range for automatic
	// circle-count selection.
	MinCircles int
	MaxCircles int

	// ElbowImprovement is the relative per-count loss improvement below
	// which the count sweep considers returns to be diminishing.
	ElbowImprovement float64

	// Workers is the maximum number of concurrent count-sweep runs.
	// If less than 1, GOMAXPROCS is used.
	Workers int

	// Seed seeds the deterministic initializer. Identical configurations
	// with identical seeds produce identical results.
	Seed int64
}

// DefaultConfig returns the default configuration. The defaults are
// determined empirically to behave well on convex and mildly concave
// polygons normalized to the unit square.
func DefaultConfig() *Config {
	return &Config{
		LearningRate:         0.05,
		MaxIterations:        500,
		ConvergenceTolerance: 1e-5,
		ConvergenceWindow:    25,
		GridSize:             64,
		Sharpness:            80,
		CoverageWeight:       1,
		ContainmentWeight:    0.5,
		RepulsionWeight:      0.25,
		RepulsionScale:       0.6,
		InitRadiusScale:      0.7,
		MinRadius:            1e-3,
		MinCircles:           1,
		MaxCircles:           8,
		ElbowImprovement:     0.1,
		Workers:              0,
		Seed:                 1,
	}
}

// Check returns a ConfigurationError describing the first invalid
// configuration value, or nil if the configuration is usable.
func (c *Config) Check() error {
	switch {
	case c.LearningRate <= 0:
		return &ConfigurationError{"LearningRate", "must be positive"}
	case c.MaxIterations < 1:
		return &ConfigurationError{"MaxIterations", "must be at least 1"}
	case c.ConvergenceTolerance < 0:
		return &ConfigurationError{"ConvergenceTolerance", "must not be negative"}
	case c.ConvergenceWindow < 1:
		return &ConfigurationError{"ConvergenceWindow", "must be at least 1"}
	case c.GridSize < 8:
		return &ConfigurationError{"GridSize", "must be at least 8"}
	case c.Sharpness <= 0:
		return &ConfigurationError{"Sharpness", "must be positive"}
	case c.CoverageWeight < 0 || c.ContainmentWeight < 0 || c.RepulsionWeight < 0:
		return &ConfigurationError{"weights", "loss term weights must not be negative"}
	case c.RepulsionScale <= 0:
		return &ConfigurationError{"RepulsionScale", "must be positive"}
	case c.InitRadiusScale <= 0:
		return &ConfigurationError{"InitRadiusScale", "must be positive"}
	case c.MinRadius <= 0:
		return &ConfigurationError{"MinRadius", "must be positive"}
	case c.MinCircles < 1:
		return &ConfigurationError{"MinCircles", "must be at least 1"}
	case c.MaxCircles < c.MinCircles:
		return &ConfigurationError{"MaxCircles", "must not be less than MinCircles"}
	case c.ElbowImprovement <= 0 || c.ElbowImprovement >= 1:
		return &ConfigurationError{"ElbowImprovement", "must be between 0 and 1"}
	}
	return nil
}
