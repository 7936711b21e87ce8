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

package circlecoverutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/circlecover"
	"github.com/spf13/cast"
)

// FitConfig unmarshals a viper configuration for a circle fit.
func FitConfig(cfg *viper.Viper) (*circlecover.Config, error) {
	c := circlecover.DefaultConfig()
	c.LearningRate = cfg.GetFloat64("Fit.LearningRate")
	c.MaxIterations = cfg.GetInt("Fit.MaxIterations")
	c.ConvergenceTolerance = cfg.GetFloat64("Fit.ConvergenceTolerance")
	c.ConvergenceWindow = cfg.GetInt("Fit.ConvergenceWindow")
	c.GridSize = cfg.GetInt("Fit.GridSize")
	c.Sharpness = cfg.GetFloat64("Fit.Sharpness")
	c.CoverageWeight = cfg.GetFloat64("Fit.CoverageWeight")
	c.ContainmentWeight = cfg.GetFloat64("Fit.ContainmentWeight")
	c.RepulsionWeight = cfg.GetFloat64("Fit.RepulsionWeight")
	c.RepulsionScale = cfg.GetFloat64("Fit.RepulsionScale")
	c.InitRadiusScale = cfg.GetFloat64("Fit.InitRadiusScale")
	c.MinRadius = cfg.GetFloat64("Fit.MinRadius")
	c.MinCircles = cfg.GetInt("Fit.MinCircles")
	c.MaxCircles = cfg.GetInt("Fit.MaxCircles")
	c.ElbowImprovement = cfg.GetFloat64("Fit.ElbowImprovement")
	c.Workers = cfg.GetInt("Fit.Workers")
	seed, err := cast.ToInt64E(cfg.Get("Fit.Seed"))
	if err != nil {
		return nil, fmt.Errorf("Fit.Seed: %v", err)
	}
	c.Seed = seed
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="circles.geojson")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("circlecover: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// parsePolygon returns the polygon represented by the given GeoJSON file.
func parsePolygon(file string) (geom.Polygon, error) {
	f, err := os.Open(os.ExpandEnv(file))
	if err != nil {
		return nil, fmt.Errorf("opening polygon file: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading polygon file: %w", err)
	}
	j, err := geojson.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decoding polygon file: %w", err)
	}
	var poly geom.Polygon
	switch p := j.(type) {
	case geom.Polygon:
		poly = p
	case geom.MultiPolygon:
		for _, pp := range p {
			poly = append(poly, pp...)
		}
	default:
		return nil, fmt.Errorf("invalid polygon geometry type %T", j)
	}
	return poly, nil
}

// reproject transforms poly from the inputProj projection to the
// outputProj projection, both in Proj4 format. If outputProj is empty the
// polygon is returned unchanged.
func reproject(poly geom.Polygon, inputProj, outputProj string) (geom.Polygon, error) {
	if outputProj == "" {
		return poly, nil
	}
	if inputProj == "" {
		return nil, fmt.Errorf("circlecover: OutputProj is set but InputProj is not")
	}
	src, err := proj.Parse(inputProj)
	if err != nil {
		return nil, fmt.Errorf("parsing InputProj: %v", err)
	}
	dst, err := proj.Parse(outputProj)
	if err != nil {
		return nil, fmt.Errorf("parsing OutputProj: %v", err)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, err
	}
	g, err := poly.Transform(ct)
	if err != nil {
		return nil, err
	}
	out, ok := g.(geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("projected geometry is %T, not a polygon", g)
	}
	return out, nil
}

// unitTransform maps a polygon's bounding box into the unit square,
// preserving the aspect ratio, and maps fitted circles back out.
type unitTransform struct {
	x0, y0, scale float64
}

// newUnitTransform builds the transform for poly's bounding box.
func newUnitTransform(poly geom.Polygon) (*unitTransform, error) {
	if err := circlecover.CheckPolygon(poly); err != nil {
		return nil, err
	}
	b := poly.Bounds()
	scale := b.Max.X - b.Min.X
	if dy := b.Max.Y - b.Min.Y; dy > scale {
		scale = dy
	}
	if !(scale > 0) {
		return nil, &circlecover.InvalidGeometryError{Reason: "polygon bounding box has no extent"}
	}
	return &unitTransform{x0: b.Min.X, y0: b.Min.Y, scale: scale}, nil
}

// toUnit returns poly mapped into the unit square.
func (t *unitTransform) toUnit(poly geom.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(poly))
	for i, ring := range poly {
		out[i] = make([]geom.Point, len(ring))
		for j, pt := range ring {
			out[i][j] = geom.Point{
				X: (pt.X - t.x0) / t.scale,
				Y: (pt.Y - t.y0) / t.scale,
			}
		}
	}
	return out
}

// fromUnit maps circles fitted in the unit square back to the
// original coordinates.
func (t *unitTransform) fromUnit(circles circlecover.CircleSet) circlecover.CircleSet {
	out := make(circlecover.CircleSet, len(circles))
	for i, c := range circles {
		out[i] = circlecover.Circle{
			X: c.X*t.scale + t.x0,
			Y: c.Y*t.scale + t.y0,
			R: c.R * t.scale,
		}
	}
	return out
}

// FitPolygon fits circles to poly in its original coordinates. The
// polygon is normalized to the unit square for optimization and the
// fitted circles are mapped back before being returned. If n < 1 the
// circle count is chosen automatically.
func FitPolygon(ctx context.Context, poly geom.Polygon, n int, cfg *circlecover.Config) (*circlecover.Result, error) {
	t, err := newUnitTransform(poly)
	if err != nil {
		return nil, err
	}
	result, err := circlecover.Cover(ctx, t.toUnit(poly), n, cfg)
	if err != nil {
		return nil, err
	}
	result.Circles = t.fromUnit(result.Circles)
	return result, nil
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// writeCircles writes the fitted circles in result to w as a GeoJSON
// FeatureCollection of circle-center points with a "radius" property.
func writeCircles(w io.Writer, result *circlecover.Result) error {
	fc := geoJSONFeatureCollection{Type: "FeatureCollection"}
	for i, c := range result.Circles {
		g, err := geojson.ToGeoJSON(c.Center())
		if err != nil {
			return fmt.Errorf("encoding circle %d: %w", i, err)
		}
		fc.Features = append(fc.Features, geoJSONFeature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]interface{}{
				"radius": c.R,
			},
		})
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(fc)
}
