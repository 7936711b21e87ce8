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
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestInitializeCentersInside(t *testing.T) {
	cfg := DefaultConfig()
	for _, poly := range []geom.Polygon{unitSquare(), lShape()} {
		circles, err := Initialize(poly, 5, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(circles) != 5 {
			t.Fatalf("got %d circles, want 5", len(circles))
		}
		for i, c := range circles {
			if c.Center().Within(poly) != geom.Inside {
				t.Errorf("circle %d center (%g, %g) not inside the polygon", i, c.X, c.Y)
			}
			if c.R <= 0 {
				t.Errorf("circle %d radius %g not positive", i, c.R)
			}
		}
	}
}

func TestInitializeRadiusScale(t *testing.T) {
	cfg := DefaultConfig()
	for _, n := range []int{1, 4, 9} {
		circles, err := Initialize(unitSquare(), n, cfg)
		if err != nil {
			t.Fatal(err)
		}
		want := cfg.InitRadiusScale * math.Sqrt(1/(float64(n)*math.Pi))
		for _, c := range circles {
			if different(c.R, want, testTolerance) {
				t.Errorf("n=%d: radius %g, want %g", n, c.R, want)
			}
		}
	}
}

func TestInitializeDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Initialize(lShape(), 4, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Initialize(lShape(), 4, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("circle %d differs between identically seeded runs: %+v vs %+v",
				i, a[i], b[i])
		}
	}

	cfg2 := DefaultConfig()
	cfg2.Seed = 2
	c, err := Initialize(lShape(), 4, cfg2)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical seed circles")
	}
}

func TestInitializeDegenerate(t *testing.T) {
	cfg := DefaultConfig()

	// A two-vertex polygon fails before any optimization work.
	var gerr *InvalidGeometryError
	_, err := Initialize(geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 1}}}, 1, cfg)
	if !errors.As(err, &gerr) {
		t.Errorf("two-vertex polygon: want InvalidGeometryError, got %v", err)
	}

	var cerr *ConfigurationError
	_, err = Initialize(unitSquare(), 0, cfg)
	if !errors.As(err, &cerr) {
		t.Errorf("n=0: want ConfigurationError, got %v", err)
	}
}

func TestInitializeBadConfig(t *testing.T) {
	var cerr *ConfigurationError

	cfg := DefaultConfig()
	cfg.LearningRate = -1
	if _, err := Initialize(unitSquare(), 1, cfg); !errors.As(err, &cerr) {
		t.Errorf("negative learning rate: want ConfigurationError, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.MaxIterations = 0
	if _, err := Initialize(unitSquare(), 1, cfg); !errors.As(err, &cerr) {
		t.Errorf("zero iteration cap: want ConfigurationError, got %v", err)
	}
}
