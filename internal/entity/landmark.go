package entity

import (
	"errors"
	"fmt"
)

var (
	ErrLandmarkCardinality  = errors.New("landmark set has unexpected cardinality")
	ErrLandmarkOutOfRange   = errors.New("landmark point outside the normalized frame")
	ErrUnknownLandmarkTable = errors.New("unknown landmark index table")
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Semantic landmark indices. The order is part of the wire contract of LandmarkSet.
const (
	LeftEyeInner = iota
	LeftEyeOuter
	RightEyeInner
	RightEyeOuter
	LeftIris
	RightIris
	NoseTip
	Chin
	ForeheadCenter
	LandmarkCount
)

var landmarkNames = [LandmarkCount]string{
	LeftEyeInner:   "left_eye_inner",
	LeftEyeOuter:   "left_eye_outer",
	RightEyeInner:  "right_eye_inner",
	RightEyeOuter:  "right_eye_outer",
	LeftIris:       "left_iris",
	RightIris:      "right_iris",
	NoseTip:        "nose_tip",
	Chin:           "chin",
	ForeheadCenter: "forehead_center",
}

// LandmarkName returns the semantic name of a landmark index.
func LandmarkName(idx int) string {
	if idx < 0 || idx >= LandmarkCount {
		return "unknown"
	}
	return landmarkNames[idx]
}

// LandmarkSet is one frame worth of semantic face landmarks in normalized image coordinates.
type LandmarkSet [LandmarkCount]Point

// NewLandmarkSet validates a semantic point list and copies it into a LandmarkSet.
func NewLandmarkSet(points []Point) (LandmarkSet, error) {
	var set LandmarkSet
	if len(points) != LandmarkCount {
		return set, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCardinality, len(points), LandmarkCount)
	}

	for i, p := range points {
		if err := checkNormalized(p); err != nil {
			return set, fmt.Errorf("%s: %w", LandmarkName(i), err)
		}
		set[i] = p
	}

	return set, nil
}

// checkNormalized rejects anything outside the unit square, NaN included.
func checkNormalized(p Point) error {
	if !(p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1) {
		return fmt.Errorf("%w: (%.4f, %.4f)", ErrLandmarkOutOfRange, p.X, p.Y)
	}
	return nil
}

// LandmarkIndexTable maps the semantic landmarks onto the point list of a concrete detector.
type LandmarkIndexTable struct {
	Name        string
	Version     int
	Cardinality int
	Indices     [LandmarkCount]int
}

// FaceMeshTable is the MediaPipe face mesh with refined iris landmarks.
var FaceMeshTable = LandmarkIndexTable{
	Name:        "mediapipe-face-mesh",
	Version:     1,
	Cardinality: 478,
	Indices: [LandmarkCount]int{
		LeftEyeInner:   133,
		LeftEyeOuter:   33,
		RightEyeInner:  362,
		RightEyeOuter:  263,
		LeftIris:       468,
		RightIris:      473,
		NoseTip:        1,
		Chin:           152,
		ForeheadCenter: 10,
	},
}

// SemanticTable accepts point lists that are already in semantic order.
var SemanticTable = LandmarkIndexTable{
	Name:        "semantic",
	Version:     1,
	Cardinality: LandmarkCount,
	Indices: [LandmarkCount]int{
		LeftEyeInner, LeftEyeOuter, RightEyeInner, RightEyeOuter,
		LeftIris, RightIris, NoseTip, Chin, ForeheadCenter,
	},
}

var landmarkTables = map[string]LandmarkIndexTable{
	FaceMeshTable.ID(): FaceMeshTable,
	SemanticTable.ID(): SemanticTable,
}

// ID returns the versioned table identifier, e.g. "mediapipe-face-mesh@v1".
func (t LandmarkIndexTable) ID() string {
	return fmt.Sprintf("%s@v%d", t.Name, t.Version)
}

// Resolve picks the semantic landmarks out of a full detector point list.
func (t LandmarkIndexTable) Resolve(points []Point) (LandmarkSet, error) {
	var set LandmarkSet
	if len(points) != t.Cardinality {
		return set, fmt.Errorf("%w: %s expects %d points, got %d", ErrLandmarkCardinality, t.ID(), t.Cardinality, len(points))
	}

	for semantic, meshIdx := range t.Indices {
		p := points[meshIdx]
		if err := checkNormalized(p); err != nil {
			return set, fmt.Errorf("%s: %w", LandmarkName(semantic), err)
		}
		set[semantic] = p
	}

	return set, nil
}

// LookupLandmarkTable finds a registered table by ID. An empty ID picks the table whose
// cardinality matches n, so clients may omit it.
func LookupLandmarkTable(id string, n int) (LandmarkIndexTable, error) {
	if id != "" {
		t, ok := landmarkTables[id]
		if !ok {
			return LandmarkIndexTable{}, fmt.Errorf("%w: %s", ErrUnknownLandmarkTable, id)
		}
		return t, nil
	}

	for _, t := range landmarkTables {
		if t.Cardinality == n {
			return t, nil
		}
	}

	return LandmarkIndexTable{}, fmt.Errorf("%w: no table with %d points", ErrLandmarkCardinality, n)
}
