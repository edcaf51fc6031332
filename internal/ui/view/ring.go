package view

import (
	"image/color"
	"math"
)

// Ring describes the progress ring for pixel rendering.
type Ring struct {
	Progress float64
	Color    color.NRGBA
	Glow     int
	// GlowColor defaults to Color when zero.
	GlowColor color.NRGBA
}

// ringStroke is the stroke width as a fraction of the ring's diameter.
const ringStroke = 12.0 / 280.0

// Pixel returns the colour at (x, y) of a w×h raster. The filled arc starts
// at twelve o'clock and runs clockwise for Progress of a full turn.
func (ring Ring) Pixel(x, y, w, h int) color.Color {
	size := float64(min(w, h))
	if size <= 0 {
		return color.Transparent
	}
	stroke := size * ringStroke
	glow := float64(ring.Glow) * size / 280
	radius := size/2 - stroke/2 - glow

	dx := float64(x) + 0.5 - float64(w)/2
	dy := float64(y) + 0.5 - float64(h)/2
	distance := math.Abs(math.Hypot(dx, dy) - radius)

	filled := angleFraction(dx, dy) <= ring.Progress && ring.Progress > 0
	if distance <= stroke/2 {
		if filled {
			return ring.Color
		}
		return TrackColor
	}
	if filled && glow > 0 && distance <= stroke/2+glow {
		glowColor := ring.GlowColor
		if glowColor == (color.NRGBA{}) {
			glowColor = ring.Color
		}
		fade := 1 - (distance-stroke/2)/glow
		glowColor.A = uint8(float64(0x80) * fade * fade)
		return glowColor
	}
	return color.Transparent
}

// angleFraction is the clockwise turn from twelve o'clock in [0, 1).
func angleFraction(dx, dy float64) float64 {
	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle / (2 * math.Pi)
}
