package extract

import (
	"encoding/json"
	"math"
	"strings"
)

// Canonical Rect bounds. Coordinates stop at 0.98 so highlight borders keep
// a margin at the right/bottom image edges; the origin clamp leaves room for
// the minimum box size below the edge margin.
const (
	minCoord  = 0.001
	maxExtent = 0.98
	minSize   = 0.01
	maxCoord  = maxExtent - minSize
)

// Assumed document canvas for pixel-valued boxes. The true image dimensions
// are not threaded through to this stage, so pixel coordinates are divided by
// the larger of the box extent and a typical scanned-page size. A heuristic,
// not a measurement.
const (
	assumedPageWidth  = 1000.0
	assumedPageHeight = 1400.0
)

// boxRule is a label-keyword heuristic applied after clamping. Rules run in
// order; zero-valued adjustments are skipped.
type boxRule struct {
	keyword   string
	minWidth  float64
	minHeight float64
	minY      float64
}

// Totals render as wider highlight boxes; invoice numbers sit in the header
// region. New heuristics are additive: append a rule, add a test.
var boxRules = []boxRule{
	{keyword: "total", minWidth: 0.15, minHeight: 0.04},
	{keyword: "invoice", minY: 0.05, minWidth: 0.2},
}

// looseBox matches the coordinate spellings the inference service has been
// seen to emit for object-shaped boxes.
type looseBox struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`

	Left   *float64 `json:"left"`
	Top    *float64 `json:"top"`
	Right  *float64 `json:"right"`
	Bottom *float64 `json:"bottom"`
}

// NormalizeBox converts a raw bounding-box description into a canonical
// Rect. It is total: any input, including absent or malformed boxes, maps to
// a valid Rect. index positions box-less fields on the fallback grid.
func NormalizeBox(raw json.RawMessage, label string, index int) Rect {
	r, ok := decodeBox(raw)
	if !ok {
		r = FallbackBox(index)
	} else {
		r = scaleToUnit(r)
	}
	return Canonicalize(r, label)
}

// decodeBox sniffs the box shape: an ordered [x,y,w,h] tuple, an
// {x,y,width,height} object, or an {left,top,right,bottom} object. Anything
// else is treated as absent.
func decodeBox(raw json.RawMessage) (Rect, bool) {
	if len(raw) == 0 {
		return Rect{}, false
	}

	var tuple []float64
	if err := json.Unmarshal(raw, &tuple); err == nil {
		if len(tuple) < 4 {
			return Rect{}, false
		}
		return Rect{X: tuple[0], Y: tuple[1], Width: tuple[2], Height: tuple[3]}, true
	}

	var lb looseBox
	if err := json.Unmarshal(raw, &lb); err != nil {
		return Rect{}, false
	}

	if lb.X != nil && lb.Y != nil {
		r := Rect{X: *lb.X, Y: *lb.Y, Width: 0.1, Height: 0.05}
		if lb.Width != nil {
			r.Width = *lb.Width
		}
		if lb.Height != nil {
			r.Height = *lb.Height
		}
		return r, true
	}

	if lb.Left != nil && lb.Top != nil && lb.Right != nil && lb.Bottom != nil {
		return Rect{
			X:      *lb.Left,
			Y:      *lb.Top,
			Width:  *lb.Right - *lb.Left,
			Height: *lb.Bottom - *lb.Top,
		}, true
	}

	return Rect{}, false
}

// scaleToUnit detects pixel-valued boxes and divides them down to the unit
// square. Values all ≤ 1 are taken as already normalized.
func scaleToUnit(r Rect) Rect {
	if r.X <= 1 && r.Y <= 1 && r.Width <= 1 && r.Height <= 1 {
		return r
	}
	assumedW := math.Max(r.X+r.Width, assumedPageWidth)
	assumedH := math.Max(r.Y+r.Height, assumedPageHeight)
	return Rect{
		X:      r.X / assumedW,
		Y:      r.Y / assumedH,
		Width:  r.Width / assumedW,
		Height: r.Height / assumedH,
	}
}

// Canonicalize clamps r into the canonical bounds and applies the label
// heuristics. It is idempotent: reapplying to its own output, same label,
// yields the same Rect.
func Canonicalize(r Rect, label string) Rect {
	x := clamp(finite(r.X), minCoord, maxCoord)
	y := clamp(finite(r.Y), minCoord, maxCoord)
	w := clamp(finite(r.Width), minSize, maxExtent-x)
	h := clamp(finite(r.Height), minSize, maxExtent-y)

	key := strings.ToLower(label)
	for _, rule := range boxRules {
		if !strings.Contains(key, rule.keyword) {
			continue
		}
		if rule.minWidth > 0 {
			w = math.Max(w, rule.minWidth)
		}
		if rule.minHeight > 0 {
			h = math.Max(h, rule.minHeight)
		}
		if rule.minY > 0 {
			y = math.Max(y, rule.minY)
		}
	}

	// Heuristic floors may have pushed a box past the edge margin; cap again
	// so the Rect invariant holds unconditionally.
	y = clamp(y, minCoord, maxCoord)
	w = clamp(w, minSize, maxExtent-x)
	h = clamp(h, minSize, maxExtent-y)

	return Rect{X: x, Y: y, Width: w, Height: h}
}

// FallbackBox synthesizes a Rect for a field the service located nowhere:
// a fixed two-column grid layout keyed by field index, so every field stays
// highlightable.
func FallbackBox(index int) Rect {
	if index < 0 {
		index = 0
	}
	row := index / 2
	col := index % 2
	return Rect{
		X:      0.05 + float64(col)*0.5,
		Y:      0.1 + float64(row)*0.06,
		Width:  0.45,
		Height: 0.04,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// finite maps NaN and ±Inf to 0 so clamping stays total.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
