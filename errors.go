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

import "fmt"

// InvalidGeometryError is returned when an input polygon cannot be used
// for optimization: it has fewer than three distinct vertices, zero or
// negative area, or self-intersects. It is always returned before any
// optimization work begins.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("circlecover: invalid geometry: %s", e.Reason)
}

// ConfigurationError is returned when a configuration value is invalid.
// Configuration is checked eagerly, before any computation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("circlecover: invalid configuration: %s: %s", e.Field, e.Reason)
}

// NumericalDivergenceError is returned when a gradient update produces a
// non-finite value or moves a circle outside the numerical safety domain.
// It is fatal for the run that produced it; the caller may retry with a
// smaller learning rate or a different initialization.
type NumericalDivergenceError struct {
	Iteration int
	Reason    string
}

func (e *NumericalDivergenceError) Error() string {
	return fmt.Sprintf("circlecover: numerical divergence at iteration %d: %s",
		e.Iteration, e.Reason)
}
