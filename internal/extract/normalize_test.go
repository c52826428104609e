package extract

import (
	"encoding/json"
	"math"
	"testing"
)

func checkCanonical(t *testing.T, r Rect) {
	t.Helper()
	if r.X < minCoord || r.X > maxCoord {
		t.Errorf("x out of bounds: %v", r.X)
	}
	if r.Y < minCoord || r.Y > maxCoord {
		t.Errorf("y out of bounds: %v", r.Y)
	}
	if r.Width < minSize || r.X+r.Width > maxExtent+1e-9 {
		t.Errorf("width out of bounds: x=%v w=%v", r.X, r.Width)
	}
	if r.Height < minSize || r.Y+r.Height > maxExtent+1e-9 {
		t.Errorf("height out of bounds: y=%v h=%v", r.Y, r.Height)
	}
}

func TestNormalizeBoxShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Rect
	}{
		{
			name: "object form",
			raw:  `{"x":0.2,"y":0.3,"width":0.2,"height":0.1}`,
			want: Rect{X: 0.2, Y: 0.3, Width: 0.2, Height: 0.1},
		},
		{
			name: "tuple form",
			raw:  `[0.1,0.2,0.3,0.05]`,
			want: Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05},
		},
		{
			name: "edge form",
			raw:  `{"left":0.1,"top":0.2,"right":0.4,"bottom":0.3}`,
			want: Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.1},
		},
		{
			name: "object missing size gets defaults",
			raw:  `{"x":0.5,"y":0.5}`,
			want: Rect{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.05},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBox(json.RawMessage(tt.raw), "Date", 0)
			if !rectNear(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			checkCanonical(t, got)
		})
	}
}

func TestNormalizeBoxPixelScale(t *testing.T) {
	// Pixel coordinates divide by the assumed page canvas.
	got := NormalizeBox(json.RawMessage(`{"x":500,"y":700,"width":100,"height":50}`), "Date", 0)
	want := Rect{X: 0.5, Y: 0.5, Width: 0.1, Height: 50.0 / 1400.0}
	if !rectNear(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Coordinates wider than the assumed canvas divide by their own extent.
	got = NormalizeBox(json.RawMessage(`{"x":1500,"y":100,"width":500,"height":50}`), "Date", 0)
	if got.X+got.Width > maxExtent+1e-9 {
		t.Errorf("oversized pixel box not contained: %+v", got)
	}
	checkCanonical(t, got)
}

func TestNormalizeBoxTotal(t *testing.T) {
	// Every input maps to a canonical Rect, no matter how malformed.
	inputs := []string{
		``,
		`null`,
		`"not a box"`,
		`42`,
		`[]`,
		`[0.1,0.2]`,
		`{"left":0.1,"top":0.2}`,
		`{"x":"abc","y":{}}`,
		`{"x":-5,"y":99,"width":-1,"height":0}`,
		`[-1e308,1e308,0,0]`,
	}
	for _, in := range inputs {
		got := NormalizeBox(json.RawMessage(in), "Date", 3)
		checkCanonical(t, got)
	}
}

func TestCanonicalizeNonFinite(t *testing.T) {
	got := Canonicalize(Rect{X: math.NaN(), Y: math.Inf(1), Width: math.Inf(-1), Height: math.NaN()}, "Date")
	checkCanonical(t, got)
	if got.X != minCoord || got.Y != minCoord {
		t.Errorf("non-finite origin should clamp to minimum, got %+v", got)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	rects := []Rect{
		{X: 0.2, Y: 0.3, Width: 0.2, Height: 0.1},
		{X: 0.96, Y: 0.96, Width: 0.5, Height: 0.5},
		{X: -1, Y: 2, Width: 0, Height: 0},
	}
	labels := []string{"Date", "Total Amount", "Invoice Number"}
	for _, r := range rects {
		for _, label := range labels {
			once := Canonicalize(r, label)
			twice := Canonicalize(once, label)
			if once != twice {
				t.Errorf("not idempotent for %+v %q: %+v != %+v", r, label, once, twice)
			}
		}
	}
}

func TestCanonicalizeLabelHeuristics(t *testing.T) {
	// Total boxes get a width/height floor.
	got := Canonicalize(Rect{X: 0.5, Y: 0.5, Width: 0.02, Height: 0.01}, "Grand Total")
	if got.Width < 0.15 || got.Height < 0.04 {
		t.Errorf("total floors not applied: %+v", got)
	}

	// Invoice boxes get pushed out of the top margin and widened.
	got = Canonicalize(Rect{X: 0.1, Y: 0.01, Width: 0.05, Height: 0.02}, "Invoice Number")
	if got.Y < 0.05 || got.Width < 0.2 {
		t.Errorf("invoice floors not applied: %+v", got)
	}

	// A well-sized total box passes through unchanged.
	in := Rect{X: 0.5, Y: 0.8, Width: 0.3, Height: 0.05}
	got = Canonicalize(in, "Total")
	if got != in {
		t.Errorf("well-formed total box changed: %+v -> %+v", in, got)
	}

	// Matching is case-insensitive on the label.
	a := Canonicalize(Rect{X: 0.5, Y: 0.5, Width: 0.02, Height: 0.01}, "TOTAL DUE")
	b := Canonicalize(Rect{X: 0.5, Y: 0.5, Width: 0.02, Height: 0.01}, "total due")
	if a != b {
		t.Errorf("case sensitivity in rule match: %+v != %+v", a, b)
	}

	// Floors near the edge still respect the margin.
	got = Canonicalize(Rect{X: 0.9, Y: 0.95, Width: 0.02, Height: 0.01}, "Total")
	checkCanonical(t, got)
}

func TestFallbackBoxGrid(t *testing.T) {
	seen := map[Rect]int{}
	for i := 0; i < 8; i++ {
		r := FallbackBox(i)
		if prev, dup := seen[r]; dup {
			t.Errorf("index %d collides with %d: %+v", i, prev, r)
		}
		seen[r] = i
		checkCanonical(t, Canonicalize(r, "Field"))
	}

	// Two columns: even indexes left, odd indexes right.
	if FallbackBox(0).X == FallbackBox(1).X {
		t.Error("columns not distinct")
	}
	if FallbackBox(0).Y != FallbackBox(1).Y {
		t.Error("same row should share y")
	}
	if FallbackBox(0).Y >= FallbackBox(2).Y {
		t.Error("rows should descend the page")
	}

	// Negative index is treated as zero.
	if FallbackBox(-3) != FallbackBox(0) {
		t.Error("negative index not clamped")
	}
}

func rectNear(a, b Rect) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps &&
		math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.Width-b.Width) < eps &&
		math.Abs(a.Height-b.Height) < eps
}
