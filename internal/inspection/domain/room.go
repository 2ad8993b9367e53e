package domain

import "math"

// ViewType classifies what a sketched room represents.
type ViewType string

const (
	ViewTypeInterior  ViewType = "interior"
	ViewTypeElevation ViewType = "elevation"
	ViewTypeRoofPlan  ViewType = "roof_plan"
)

// Vertex is a 2D sketch coordinate in feet.
type Vertex struct {
	X float64
	Y float64
}

// Dimensions holds measured room dimensions in feet. Zero means unmeasured.
type Dimensions struct {
	WallHeightFt float64
	LengthFt     float64
	WidthFt      float64
}

// Room is a sketched area: an interior room, an exterior elevation, or a
// roof plan facet. The polygon is an ordered vertex list; edge i runs from
// vertex i to vertex (i+1) mod len.
type Room struct {
	ID         string
	SessionID  string
	Name       string
	ViewType   ViewType
	Polygon    []Vertex
	Dimensions Dimensions
}

// EdgeCount returns the number of polygon edges.
func (r Room) EdgeCount() int {
	if len(r.Polygon) < 3 {
		return 0
	}
	return len(r.Polygon)
}

// EdgeLength returns the Euclidean length of polygon edge i, or false when
// the index does not resolve to an edge.
func (r Room) EdgeLength(i int) (float64, bool) {
	count := r.EdgeCount()
	if i < 0 || i >= count {
		return 0, false
	}
	a := r.Polygon[i]
	b := r.Polygon[(i+1)%count]
	return math.Hypot(b.X-a.X, b.Y-a.Y), true
}

// Opening is a door, window, or other gap in a room wall.
type Opening struct {
	ID        string
	SessionID string
	RoomID    string
	Kind      string
	WallIndex int
	WidthFt   float64
	HeightFt  float64
}
