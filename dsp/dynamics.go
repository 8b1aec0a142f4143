package dsp

import "math"

// ApplyLimiter compresses the part of each magnitude above threshold by ratio.
// Sign is preserved. Ratio below 1 is treated as 1.
func ApplyLimiter(buf []float64, threshold, ratio float64) {
	if ratio < 1 {
		ratio = 1
	}
	applyLanes(buf, func(v float64) float64 { return limit(v, threshold, ratio) })
}

func limit(v, threshold, ratio float64) float64 {
	abs := math.Abs(v)
	if abs <= threshold {
		return v
	}
	return math.Copysign(threshold+(abs-threshold)/ratio, v)
}

// ApplySoftClipper saturates magnitudes above threshold towards 1 along a
// hyperbolic tangent curve. Threshold at or above 1 leaves buf unchanged.
func ApplySoftClipper(buf []float64, threshold float64) {
	if threshold >= 1 {
		return
	}
	if threshold < 0 {
		threshold = 0
	}
	applyLanes(buf, func(v float64) float64 { return softClip(v, threshold) })
}

func softClip(v, threshold float64) float64 {
	abs := math.Abs(v)
	if abs <= threshold {
		return v
	}
	knee := 1 - threshold
	return math.Copysign(threshold+knee*math.Tanh((abs-threshold)/knee), v)
}

// Normalize scales buf so that its peak magnitude equals target. Silent
// spans are left unchanged.
func Normalize(buf []float64, target float64) {
	peak := Peak(buf)
	if peak < 1e-10 || peak == target {
		return
	}
	ApplyGain(buf, target/peak)
}

// FadeIn applies a linear ramp from silence over the first length samples.
// Non-positive length leaves buf unchanged.
func FadeIn(buf []float64, length int) {
	n := max(0, min(length, len(buf)))
	ramp(buf[:n], func(i int) float64 { return float64(i) / float64(n) })
}

// FadeOut applies a linear ramp towards silence over the last length samples.
// Non-positive length leaves buf unchanged.
func FadeOut(buf []float64, length int) {
	n := max(0, min(length, len(buf)))
	ramp(buf[len(buf)-n:], func(i int) float64 { return 1 - float64(i)/float64(n) })
}

func applyLanes(buf []float64, fn func(float64) float64) {
	i := 0
	if len(buf) >= Lanes {
		for ; i+Lanes <= len(buf); i += Lanes {
			b := buf[i : i+Lanes : i+Lanes]
			b[0] = fn(b[0])
			b[1] = fn(b[1])
			b[2] = fn(b[2])
			b[3] = fn(b[3])
		}
	}
	for ; i < len(buf); i++ {
		buf[i] = fn(buf[i])
	}
}

func ramp(buf []float64, gain func(int) float64) {
	i := 0
	if len(buf) >= Lanes {
		for ; i+Lanes <= len(buf); i += Lanes {
			b := buf[i : i+Lanes : i+Lanes]
			b[0] *= gain(i)
			b[1] *= gain(i + 1)
			b[2] *= gain(i + 2)
			b[3] *= gain(i + 3)
		}
	}
	for ; i < len(buf); i++ {
		buf[i] *= gain(i)
	}
}
