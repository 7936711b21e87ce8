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
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/circlecover"
)

func TestFitConfig(t *testing.T) {
	// With no flags or files set, the registered defaults must
	// reproduce the library defaults.
	cfg, err := FitConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, circlecover.DefaultConfig()) {
		t.Errorf("config from defaults = %+v, want %+v", cfg, circlecover.DefaultConfig())
	}
}

func TestUnitTransformRoundTrip(t *testing.T) {
	poly := geom.Polygon{{
		{X: 2, Y: 4}, {X: 10, Y: 4}, {X: 10, Y: 8}, {X: 2, Y: 8},
	}}
	tr, err := newUnitTransform(poly)
	if err != nil {
		t.Fatal(err)
	}
	if tr.scale != 8 {
		t.Errorf("scale = %g, want 8 (the longer bounding box side)", tr.scale)
	}

	unit := tr.toUnit(poly)
	b := unit.Bounds()
	if b.Min.X != 0 || b.Min.Y != 0 || b.Max.X != 1 || b.Max.Y != 0.5 {
		t.Errorf("normalized bounds = %+v, want [0,0]-[1,0.5]", b)
	}

	circles := circlecover.CircleSet{{X: 0.5, Y: 0.25, R: 0.1}}
	back := tr.fromUnit(circles)
	want := circlecover.Circle{X: 6, Y: 6, R: 0.8}
	if math.Abs(back[0].X-want.X) > 1e-12 || math.Abs(back[0].Y-want.Y) > 1e-12 ||
		math.Abs(back[0].R-want.R) > 1e-12 {
		t.Errorf("denormalized circle = %+v, want %+v", back[0], want)
	}
}

func TestUnitTransformDegenerate(t *testing.T) {
	if _, err := newUnitTransform(nil); err == nil {
		t.Error("nil polygon did not return an error")
	}
	line := geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}}
	if _, err := newUnitTransform(line); err == nil {
		t.Error("zero-area polygon did not return an error")
	}
}

func TestParsePolygon(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "square.geojson")
	data := `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`
	if err := os.WriteFile(file, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	poly, err := parsePolygon(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(poly) != 1 || len(poly[0]) != 5 {
		t.Errorf("parsed polygon has %d rings, first with %d points", len(poly), len(poly[0]))
	}
	if a := poly.Area(); math.Abs(a-16) > 1e-9 {
		t.Errorf("parsed polygon area = %g, want 16", a)
	}

	bad := filepath.Join(dir, "point.geojson")
	if err := os.WriteFile(bad, []byte(`{"type":"Point","coordinates":[1,2]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := parsePolygon(bad); err == nil {
		t.Error("point geometry did not return an error")
	}

	if _, err := parsePolygon(filepath.Join(dir, "missing.geojson")); err == nil {
		t.Error("missing file did not return an error")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("empty output file did not return an error")
	}
	if _, err := checkOutputFile(filepath.Join(t.TempDir(), "out.geojson")); err != nil {
		t.Errorf("output file in existing directory: %v", err)
	}
	if _, err := checkOutputFile("/nonexistent-dir-for-test/out.geojson"); err == nil {
		t.Error("output file in missing directory did not return an error")
	}
}

func TestWriteCircles(t *testing.T) {
	result := &circlecover.Result{
		N: 2,
		Circles: circlecover.CircleSet{
			{X: 1, Y: 2, R: 0.5},
			{X: 3, Y: 4, R: 0.25},
		},
	}
	var buf bytes.Buffer
	if err := writeCircles(&buf, result); err != nil {
		t.Fatal(err)
	}
	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(buf.Bytes(), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("got %q with %d features, want FeatureCollection with 2", fc.Type, len(fc.Features))
	}
	if fc.Features[0].Geometry.Type != "Point" {
		t.Errorf("feature geometry type = %q, want Point", fc.Features[0].Geometry.Type)
	}
	if r := fc.Features[1].Properties["radius"].(float64); r != 0.25 {
		t.Errorf("second circle radius property = %g, want 0.25", r)
	}
}

func TestFitPolygon(t *testing.T) {
	// A 10×10 square away from the origin: the fit happens in the unit
	// square but the result must come back in these coordinates.
	poly := geom.Polygon{{
		{X: 100, Y: 200}, {X: 110, Y: 200}, {X: 110, Y: 210}, {X: 100, Y: 210},
	}}
	cfg := circlecover.DefaultConfig()
	cfg.GridSize = 32
	cfg.MaxIterations = 200

	result, err := FitPolygon(context.Background(), poly, 1, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Circles) != 1 {
		t.Fatalf("got %d circles, want 1", len(result.Circles))
	}
	c := result.Circles[0]
	if math.Abs(c.X-105) > 1 || math.Abs(c.Y-205) > 1 {
		t.Errorf("circle center (%g, %g), want near (105, 205)", c.X, c.Y)
	}
	if c.R < 2.5 || c.R > 7 {
		t.Errorf("circle radius %g out of the plausible range for a 10×10 square", c.R)
	}
}
