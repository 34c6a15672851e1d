package rf

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidParameter is returned when a configuration value cannot be used
// by a component. It is only ever reported at setup time, never by a step.
var ErrInvalidParameter = errors.New("invalid parameter")

// CheckFinite returns an error if v is NaN or infinite.
func CheckFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %g",
			ErrInvalidParameter, name, v)
	}

	return nil
}

// CheckFiniteComplex returns an error if either part of v is NaN or infinite.
func CheckFiniteComplex(name string, v complex128) error {
	if cmplx.IsNaN(v) || cmplx.IsInf(v) {
		return fmt.Errorf("%w: %s must be finite, got %g",
			ErrInvalidParameter, name, v)
	}

	return nil
}

// CheckPositive returns an error if v is not a finite, strictly positive
// number.
func CheckPositive(name string, v float64) error {
	if err := CheckFinite(name, v); err != nil {
		return err
	}

	if v <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %g",
			ErrInvalidParameter, name, v)
	}

	return nil
}

// CheckHarshness validates the exponent used by Saturate.
func CheckHarshness(c float64) error {
	return CheckPositive("harshness", c)
}
