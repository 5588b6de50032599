// Package geom provides the geometric primitives shared by the layout and
// presentation boundaries, and the coordinate translation between them.
//
// The layout engine reports absolute positions; the presentation layer
// works in parent-relative coordinates. [ToPresentation] and [ToLayout]
// convert between the two spaces: subtract the parent's absolute origin on
// the way out, add it back when the renderer reports a user-dragged
// position. For top-level elements the spaces coincide and both directions
// are the identity. The functions exist so that assumption stays explicit
// and testable rather than being baked silently into the bridges.
package geom

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a 2D extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a positioned extent. Point is the top-left corner.
type Rect struct {
	Point
	Size
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ToPresentation converts a layout-space position into the presentation
// layer's parent-relative space. parent is the absolute geometry of the
// enclosing container, or nil for top-level elements and for positions that
// are already parent-relative.
func ToPresentation(p Point, parent *Rect) Point {
	if parent == nil {
		return p
	}
	return p.Sub(parent.Point)
}

// ToLayout converts a presentation-space (parent-relative) position reported
// by the renderer back into the layout engine's convention by adding the
// parent's absolute origin. For top-level elements (parent == nil) the two
// spaces coincide.
//
// ToLayout(ToPresentation(p, r), r) == p for any p and r, within
// floating-point tolerance.
func ToLayout(p Point, parent *Rect) Point {
	if parent == nil {
		return p
	}
	return p.Add(parent.Point)
}
