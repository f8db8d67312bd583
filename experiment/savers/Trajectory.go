package savers

import (
	"image/color"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

// rendering constants
const (
	imageSize   int     = 800
	margin      float64 = 40.0
	targetShade         = 180
)

// Trajectory tracks the oscillator position of every tick and saves
// the trace as a PNG, with the unit circle drawn underneath as the
// target orbit. The viewport is autoscaled to the trace but never
// shrinks below the unit circle, so the target is always visible.
type Trajectory struct {
	xs       []float64
	ys       []float64
	filename string
}

// NewTrajectory creates and returns a new *Trajectory Saver
func NewTrajectory(filename string) *Trajectory {
	return &Trajectory{filename: filename}
}

// Track caches the position of a tick
func (t *Trajectory) Track(r Record) {
	t.xs = append(t.xs, r.PositionX)
	t.ys = append(t.ys, r.PositionY)
}

// Save renders the cached trace and writes it to disk
func (t *Trajectory) Save() error {
	bounds := t.bounds()
	span := bounds.Max - bounds.Min
	scale := (float64(imageSize) - 2.0*margin) / span

	// toPixel maps a world coordinate onto the image, with the y axis
	// flipped so that positive y points up.
	toPixel := func(x, y float64) (float64, float64) {
		px := margin + (x-bounds.Min)*scale
		py := float64(imageSize) - margin - (y-bounds.Min)*scale
		return px, py
	}

	dc := gg.NewContext(imageSize, imageSize)
	dc.SetColor(color.White)
	dc.Clear()

	// Target orbit
	cx, cy := toPixel(0.0, 0.0)
	dc.SetColor(color.Gray{Y: targetShade})
	dc.SetLineWidth(2.0)
	dc.DrawCircle(cx, cy, scale)
	dc.Stroke()

	dc.ClearPath()
	dc.SetColor(color.Black)
	dc.SetLineWidth(1.0)
	for i := 0; i+1 < len(t.xs); i++ {
		x1, y1 := toPixel(t.xs[i], t.ys[i])
		x2, y2 := toPixel(t.xs[i+1], t.ys[i+1])
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	return dc.SavePNG(t.filename)
}

// bounds returns the square world-coordinate viewport covering the
// trace and the unit circle.
func (t *Trajectory) bounds() r1.Interval {
	bounds := r1.Interval{Min: -1.0, Max: 1.0}
	if len(t.xs) > 0 {
		bounds.Min = floats.Min([]float64{bounds.Min, floats.Min(t.xs),
			floats.Min(t.ys)})
		bounds.Max = floats.Max([]float64{bounds.Max, floats.Max(t.xs),
			floats.Max(t.ys)})
	}
	return bounds
}
