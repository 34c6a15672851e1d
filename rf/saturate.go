package rf

import (
	"math"
	"math/cmplx"
)

// Saturate applies a soft, phase-preserving amplitude limit to v.
//
// The output keeps the phase of v and has the magnitude
//
//	|v| / (1 + |v|^c)^(1/c)
//
// which grows monotonically with |v| and approaches 1. A large harshness c
// gives a sharp knee close to a hard clip, a small c gives a gentle
// compression. The harshness must have been validated with CheckHarshness.
func Saturate(v complex128, harshness float64) complex128 {
	m := cmplx.Abs(v)
	if m == 0 {
		return 0
	}

	if math.IsInf(m, 1) {
		return unitDirection(v)
	}

	// Above unity the algebraically equal form 1/(1 + m^-c)^(1/c) keeps every
	// intermediate finite.
	var gain float64
	if m <= 1 {
		gain = 1 / math.Pow(1+math.Pow(m, harshness), 1/harshness)
	} else {
		gain = 1 / (m * math.Pow(1+math.Pow(m, -harshness), 1/harshness))
	}

	return complex(real(v)*gain, imag(v)*gain)
}

// unitDirection returns v/|v| for a v whose magnitude overflows.
func unitDirection(v complex128) complex128 {
	re, im := real(v), imag(v)

	if math.IsInf(re, 0) || math.IsInf(im, 0) {
		re, im = infSign(re), infSign(im)
	} else {
		scale := math.Max(math.Abs(re), math.Abs(im))
		re, im = re/scale, im/scale
	}

	n := math.Hypot(re, im)

	return complex(re/n, im/n)
}

func infSign(x float64) float64 {
	switch {
	case math.IsInf(x, 1):
		return 1
	case math.IsInf(x, -1):
		return -1
	default:
		return 0
	}
}

// SaturateScaled limits v to a ceiling of limit instead of 1. It is
// limit * Saturate(v/limit, harshness).
func SaturateScaled(v complex128, limit, harshness float64) complex128 {
	s := Saturate(complex(real(v)/limit, imag(v)/limit), harshness)
	return complex(real(s)*limit, imag(s)*limit)
}
