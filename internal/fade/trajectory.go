package fade

import (
	"math"
	"time"
)

// Tolerance is the largest per-channel deviation, as a fraction of that
// channel's intended swing, still accepted as "on the fade path".
const Tolerance = 0.05

// Progress returns elapsed/total clamped to [0, 1].
//
// total must be positive.
func Progress(elapsed, total time.Duration) float64 {
	p := float64(elapsed) / float64(total)
	return math.Max(0, math.Min(1, p))
}

// Interpolate returns the colour a linear fade from before to target is
// expected to show at the given progress (0 = before, 1 = target).
func Interpolate(before, target Color, progress float64) Color {
	b, t := before.channels(), target.channels()
	var out [4]uint16
	for i := range b {
		out[i] = uint16(math.Round(b[i] + (t[i]-b[i])*progress))
	}
	return Color{Hue: out[0], Saturation: out[1], Brightness: out[2], Kelvin: out[3]}
}

// MatchesFade reports whether current is consistent with a linear fade from
// before to target that has run for elapsed out of total.
//
// Each channel's deviation from the expected value is measured as a fraction
// of that channel's swing (target - before); channels with no swing never
// deviate. All four channels must be within Tolerance.
//
// total must be positive. A zero-length fade has no trajectory; callers
// handle that case before calling.
func MatchesFade(before, target, current Color, elapsed, total time.Duration) bool {
	if current == target {
		return true
	}

	progress := Progress(elapsed, total)
	b, t, c := before.channels(), target.channels(), current.channels()

	for i := range b {
		swing := t[i] - b[i]
		if swing == 0 {
			continue
		}
		expected := b[i] + swing*progress
		if math.Abs(expected-c[i])/math.Abs(swing) > Tolerance {
			return false
		}
	}

	return true
}
