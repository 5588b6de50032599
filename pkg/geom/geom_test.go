package geom

import "testing"

func TestPointArithmetic(t *testing.T) {
	p := Point{X: 3, Y: 4}
	q := Point{X: 1, Y: 2}

	if got := p.Add(q); got != (Point{X: 4, Y: 6}) {
		t.Errorf("Add = %v", got)
	}
	if got := p.Sub(q); got != (Point{X: 2, Y: 2}) {
		t.Errorf("Sub = %v", got)
	}
}

func TestRectCenter(t *testing.T) {
	r := Rect{Point: Point{X: 10, Y: 20}, Size: Size{Width: 4, Height: 8}}
	if got := r.Center(); got != (Point{X: 12, Y: 24}) {
		t.Errorf("Center = %v", got)
	}
}

func TestTranslator(t *testing.T) {
	parent := &Rect{Point: Point{X: 100, Y: 50}, Size: Size{Width: 300, Height: 200}}

	tests := []struct {
		name     string
		absolute Point
		parent   *Rect
		relative Point
	}{
		{name: "NilParentIsIdentity", absolute: Point{X: 7, Y: 9}, parent: nil, relative: Point{X: 7, Y: 9}},
		{name: "SubtractsParentOrigin", absolute: Point{X: 130, Y: 80}, parent: parent, relative: Point{X: 30, Y: 30}},
		{name: "NegativeOffsets", absolute: Point{X: 90, Y: 40}, parent: parent, relative: Point{X: -10, Y: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPresentation(tt.absolute, tt.parent); got != tt.relative {
				t.Errorf("ToPresentation = %v, want %v", got, tt.relative)
			}
			if got := ToLayout(tt.relative, tt.parent); got != tt.absolute {
				t.Errorf("ToLayout = %v, want %v", got, tt.absolute)
			}
		})
	}
}

// ToLayout(ToPresentation(p)) must reproduce p exactly for any parent.
func TestTranslatorRoundTrip(t *testing.T) {
	parents := []*Rect{
		nil,
		{Point: Point{X: -3.5, Y: 12.25}},
		{Point: Point{X: 1e6, Y: -1e6}},
	}
	points := []Point{{}, {X: 0.1, Y: -0.1}, {X: 123.456, Y: 789.012}}

	for _, parent := range parents {
		for _, p := range points {
			if got := ToLayout(ToPresentation(p, parent), parent); got != p {
				t.Errorf("round trip with parent %v lost %v, got %v", parent, p, got)
			}
		}
	}
}
