//Package derived computes the secondary quantities shown next to the raw ICRH channels: the voltage standing
//wave ratio of each antenna side and the relative phases of the phase boards
package derived

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

//VSWRCeiling is the largest physically meaningful VSWR. Larger values are reported as 0
const VSWRCeiling = 40

//ErrAlignment is returned if the input series of a computation differ in length
var ErrAlignment = errors.New("input series are not aligned")

func checkAligned(series ...[]float64) error {
	for i := 1; i < len(series); i++ {
		if len(series[i]) != len(series[0]) {
			return fmt.Errorf("%w: series 0 has %v samples, series %v has %v", ErrAlignment, len(series[0]), i, len(series[i]))
		}
	}
	return nil
}

//VSWR computes |(1+r)/(1-r)| with r = sqrt(pr/pi) sample by sample. Samples with pi == 0, a non finite
//result or a result above VSWRCeiling are set to 0
func VSWR(pi, pr []float64) ([]float64, error) {
	if err := checkAligned(pi, pr); err != nil {
		return nil, err
	}
	out := make([]float64, len(pi))
	for i := range pi {
		if pi[i] == 0 {
			continue
		}
		r := math.Sqrt(pr[i] / pi[i])
		v := math.Abs((1 + r) / (1 - r))
		if math.IsNaN(v) || math.IsInf(v, 0) || v > VSWRCeiling {
			continue
		}
		out[i] = v
	}
	return out, nil
}

//Wrap360 maps x into [0,360). Non finite input yields 0
func Wrap360(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	m := math.Mod(x, 360)
	if m < 0 {
		m += 360
	}
	//-tiny + 360 rounds to 360
	if m >= 360 {
		m = 0
	}
	return m
}

//RelativePhase computes ((a + b - c) / divisor) mod 360 in degrees. divisor converts the raw phase unit to
//degrees, use 1 for series already in degrees
func RelativePhase(a, b, c []float64, divisor float64) ([]float64, error) {
	if err := checkAligned(a, b, c); err != nil {
		return nil, err
	}
	if divisor == 0 {
		return nil, fmt.Errorf("phase divisor must not be zero")
	}
	out := make([]float64, len(a))
	if len(a) == 0 {
		return out, nil
	}
	floats.AddTo(out, a, b)
	floats.Sub(out, c)
	floats.Scale(1/divisor, out)
	for i := range out {
		out[i] = Wrap360(out[i])
	}
	return out, nil
}

//Scale returns a copy of values multiplied by factor
func Scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	floats.Scale(factor, out)
	return out
}
