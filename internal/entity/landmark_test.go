package entity

import (
	"errors"
	"math"
	"testing"
)

func semanticPoints() []Point {
	points := make([]Point, LandmarkCount)
	for i := range points {
		points[i] = Point{X: 0.1 * float64(i), Y: 0.5}
	}
	return points
}

func TestNewLandmarkSet(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		wantErr error
	}{
		{"valid", semanticPoints(), nil},
		{"too few", semanticPoints()[:5], ErrLandmarkCardinality},
		{"too many", append(semanticPoints(), Point{}), ErrLandmarkCardinality},
		{"negative coordinate", func() []Point {
			p := semanticPoints()
			p[NoseTip] = Point{X: -0.1, Y: 0.5}
			return p
		}(), ErrLandmarkOutOfRange},
		{"beyond frame", func() []Point {
			p := semanticPoints()
			p[Chin] = Point{X: 0.5, Y: 1.2}
			return p
		}(), ErrLandmarkOutOfRange},
		{"NaN x", func() []Point {
			p := semanticPoints()
			p[NoseTip] = Point{X: math.NaN(), Y: 0.5}
			return p
		}(), ErrLandmarkOutOfRange},
		{"NaN y", func() []Point {
			p := semanticPoints()
			p[LeftIris] = Point{X: 0.4, Y: math.NaN()}
			return p
		}(), ErrLandmarkOutOfRange},
		{"positive infinity", func() []Point {
			p := semanticPoints()
			p[Chin] = Point{X: math.Inf(1), Y: 0.5}
			return p
		}(), ErrLandmarkOutOfRange},
		{"negative infinity", func() []Point {
			p := semanticPoints()
			p[ForeheadCenter] = Point{X: 0.5, Y: math.Inf(-1)}
			return p
		}(), ErrLandmarkOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set, err := NewLandmarkSet(tc.points)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if set[RightIris] != tc.points[RightIris] {
				t.Errorf("right iris: got %+v, want %+v", set[RightIris], tc.points[RightIris])
			}
		})
	}
}

func TestFaceMeshTable_Resolve(t *testing.T) {
	mesh := make([]Point, FaceMeshTable.Cardinality)
	for i := range mesh {
		mesh[i] = Point{X: 0.5, Y: 0.5}
	}
	mesh[1] = Point{X: 0.51, Y: 0.42}
	mesh[468] = Point{X: 0.40, Y: 0.41}
	mesh[152] = Point{X: 0.5, Y: 0.8}

	set, err := FaceMeshTable.Resolve(mesh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set[NoseTip] != mesh[1] {
		t.Errorf("nose tip: got %+v, want %+v", set[NoseTip], mesh[1])
	}
	if set[LeftIris] != mesh[468] {
		t.Errorf("left iris: got %+v, want %+v", set[LeftIris], mesh[468])
	}
	if set[Chin] != mesh[152] {
		t.Errorf("chin: got %+v, want %+v", set[Chin], mesh[152])
	}

	if _, err := FaceMeshTable.Resolve(mesh[:468]); !errors.Is(err, ErrLandmarkCardinality) {
		t.Errorf("mesh without irises: got %v, want ErrLandmarkCardinality", err)
	}

	mesh[1] = Point{X: math.NaN(), Y: 0.42}
	if _, err := FaceMeshTable.Resolve(mesh); !errors.Is(err, ErrLandmarkOutOfRange) {
		t.Errorf("NaN nose tip: got %v, want ErrLandmarkOutOfRange", err)
	}
}

func TestLookupLandmarkTable(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		n        int
		wantName string
		wantErr  error
	}{
		{"explicit mesh", "mediapipe-face-mesh@v1", 0, "mediapipe-face-mesh", nil},
		{"explicit semantic", "semantic@v1", 0, "semantic", nil},
		{"inferred from mesh size", "", 478, "mediapipe-face-mesh", nil},
		{"inferred from semantic size", "", LandmarkCount, "semantic", nil},
		{"unknown id", "dlib-68@v1", 68, "", ErrUnknownLandmarkTable},
		{"unknown size", "", 68, "", ErrLandmarkCardinality},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table, err := LookupLandmarkTable(tc.id, tc.n)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Name != tc.wantName {
				t.Errorf("table: got %q, want %q", table.Name, tc.wantName)
			}
		})
	}
}

func TestLandmarkName(t *testing.T) {
	if got := LandmarkName(ForeheadCenter); got != "forehead_center" {
		t.Errorf("got %q", got)
	}
	if got := LandmarkName(LandmarkCount); got != "unknown" {
		t.Errorf("out of range: got %q", got)
	}
}
