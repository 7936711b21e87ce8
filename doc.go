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

// Package circlecover approximates a simple polygon by a set of circles
// whose union covers the polygon interior while minimizing excess area
// outside of it.
//
// Instead of solving a discrete set-cover problem, the package rasterizes
// the polygon and the candidate circles onto a fixed-resolution grid using
// smooth occupancy masks, so that a multi-term loss (soft
// intersection-over-union coverage, per-circle containment, pairwise
// repulsion) is differentiable with respect to every circle parameter.
// Circles are then refined by gradient descent. When the caller does not
// fix the number of circles, a sweep over candidate counts picks the count
// at the elbow of the loss-versus-count curve.
//
// All geometry is expected in a normalized planar coordinate domain,
// typically the unit square. Converting to and from geographic or other
// caller coordinate systems is the responsibility of the caller; the
// circlecoverutil package provides command-line plumbing for that.
package circlecover

// Version gives the version number of this version of circlecover.
const Version = "0.1.0"
