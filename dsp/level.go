package dsp

import "math"

// MinDb is returned by LinearToDb for non-positive amplitudes.
const MinDb = -100.0

// DbToLinear converts decibels to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDb converts linear amplitude to decibels.
func LinearToDb(lin float64) float64 {
	if lin <= 0 {
		return MinDb
	}
	return 20 * math.Log10(lin)
}

// DbToLinearBuffer converts decibel values in db into linear amplitudes in out.
func DbToLinearBuffer(db, out []float64) error {
	if err := checkLength(db, out); err != nil {
		return err
	}
	i := 0
	if len(db) >= Lanes {
		for ; i+Lanes <= len(db); i += Lanes {
			d := db[i : i+Lanes : i+Lanes]
			o := out[i : i+Lanes : i+Lanes]
			o[0] = DbToLinear(d[0])
			o[1] = DbToLinear(d[1])
			o[2] = DbToLinear(d[2])
			o[3] = DbToLinear(d[3])
		}
	}
	for ; i < len(db); i++ {
		out[i] = DbToLinear(db[i])
	}
	return nil
}

// RMS returns root mean square of buf. Zero for empty span.
func RMS(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	sum, i := 0.0, 0
	if len(buf) >= Lanes {
		sum, i = sumSquaresLanes(buf)
	}
	sum += sumSquaresScalar(buf[i:])
	return math.Sqrt(sum / float64(len(buf)))
}

func sumSquaresLanes(buf []float64) (float64, int) {
	var s0, s1, s2, s3 float64
	i := 0
	for ; i+Lanes <= len(buf); i += Lanes {
		b := buf[i : i+Lanes : i+Lanes]
		s0 += b[0] * b[0]
		s1 += b[1] * b[1]
		s2 += b[2] * b[2]
		s3 += b[3] * b[3]
	}
	return (s0 + s1) + (s2 + s3), i
}

func sumSquaresScalar(buf []float64) float64 {
	var s float64
	for _, v := range buf {
		s += v * v
	}
	return s
}

// Peak returns the largest magnitude in buf. Zero for empty span.
func Peak(buf []float64) float64 {
	peak, i := 0.0, 0
	if len(buf) >= Lanes {
		peak, i = peakLanes(buf)
	}
	return math.Max(peak, peakScalar(buf[i:]))
}

func peakLanes(buf []float64) (float64, int) {
	var p0, p1, p2, p3 float64
	i := 0
	for ; i+Lanes <= len(buf); i += Lanes {
		b := buf[i : i+Lanes : i+Lanes]
		p0 = math.Max(p0, math.Abs(b[0]))
		p1 = math.Max(p1, math.Abs(b[1]))
		p2 = math.Max(p2, math.Abs(b[2]))
		p3 = math.Max(p3, math.Abs(b[3]))
	}
	return math.Max(math.Max(p0, p1), math.Max(p2, p3)), i
}

func peakScalar(buf []float64) float64 {
	var p float64
	for _, v := range buf {
		p = math.Max(p, math.Abs(v))
	}
	return p
}
