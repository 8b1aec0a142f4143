package dsp

import (
	"errors"
	"fmt"
)

// Lanes is the number of samples processed per step on the lane path.
const Lanes = 4

// ErrLengthMismatch is returned when binary kernels get spans of different length.
var ErrLengthMismatch = errors.New("length mismatch")

func checkLength(spans ...[]float64) error {
	for i := 1; i < len(spans); i++ {
		if len(spans[i]) != len(spans[0]) {
			return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(spans[i]), len(spans[0]))
		}
	}
	return nil
}

// ApplyGain multiplies every sample by g.
func ApplyGain(buf []float64, g float64) {
	i := 0
	if len(buf) >= Lanes {
		i = applyGainLanes(buf, g)
	}
	applyGainScalar(buf[i:], g)
}

func applyGainLanes(buf []float64, g float64) int {
	i := 0
	for ; i+Lanes <= len(buf); i += Lanes {
		b := buf[i : i+Lanes : i+Lanes]
		b[0] *= g
		b[1] *= g
		b[2] *= g
		b[3] *= g
	}
	return i
}

func applyGainScalar(buf []float64, g float64) {
	for i := range buf {
		buf[i] *= g
	}
}

// AddWithGain accumulates in scaled by g into out.
func AddWithGain(in, out []float64, g float64) error {
	if err := checkLength(in, out); err != nil {
		return err
	}
	i := 0
	if len(in) >= Lanes {
		i = addWithGainLanes(in, out, g)
	}
	addWithGainScalar(in[i:], out[i:], g)
	return nil
}

func addWithGainLanes(in, out []float64, g float64) int {
	i := 0
	for ; i+Lanes <= len(in); i += Lanes {
		a := in[i : i+Lanes : i+Lanes]
		o := out[i : i+Lanes : i+Lanes]
		o[0] += a[0] * g
		o[1] += a[1] * g
		o[2] += a[2] * g
		o[3] += a[3] * g
	}
	return i
}

func addWithGainScalar(in, out []float64, g float64) {
	for i := range in {
		out[i] += in[i] * g
	}
}

// MultiplyBuffers writes element-wise product of a and b into out.
func MultiplyBuffers(a, b, out []float64) error {
	if err := checkLength(a, b, out); err != nil {
		return err
	}
	i := 0
	if len(a) >= Lanes {
		i = multiplyLanes(a, b, out)
	}
	multiplyScalar(a[i:], b[i:], out[i:])
	return nil
}

func multiplyLanes(a, b, out []float64) int {
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		x := a[i : i+Lanes : i+Lanes]
		y := b[i : i+Lanes : i+Lanes]
		o := out[i : i+Lanes : i+Lanes]
		o[0] = x[0] * y[0]
		o[1] = x[1] * y[1]
		o[2] = x[2] * y[2]
		o[3] = x[3] * y[3]
	}
	return i
}

func multiplyScalar(a, b, out []float64) {
	for i := range a {
		out[i] = a[i] * b[i]
	}
}

// MixBuffers writes weighted sum a*wa + b*wb into out.
func MixBuffers(a, b, out []float64, wa, wb float64) error {
	if err := checkLength(a, b, out); err != nil {
		return err
	}
	i := 0
	if len(a) >= Lanes {
		i = mixLanes(a, b, out, wa, wb)
	}
	mixScalar(a[i:], b[i:], out[i:], wa, wb)
	return nil
}

func mixLanes(a, b, out []float64, wa, wb float64) int {
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		x := a[i : i+Lanes : i+Lanes]
		y := b[i : i+Lanes : i+Lanes]
		o := out[i : i+Lanes : i+Lanes]
		o[0] = x[0]*wa + y[0]*wb
		o[1] = x[1]*wa + y[1]*wb
		o[2] = x[2]*wa + y[2]*wb
		o[3] = x[3]*wa + y[3]*wb
	}
	return i
}

func mixScalar(a, b, out []float64, wa, wb float64) {
	for i := range a {
		out[i] = a[i]*wa + b[i]*wb
	}
}
