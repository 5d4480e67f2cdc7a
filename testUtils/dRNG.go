package testUtils

import "math/rand"

//DRNGFloat64Slice wraps DRNGFloat64SliceCustomScale with scaleFactor set to 1000
func DRNGFloat64Slice(length int, seed int64) []float64 {
	return DRNGFloat64SliceCustomScale(length, seed, 1000)
}

//DRNGFloat64SliceCustomScale returns a slice of length entries with pseudo random values from -scaleFactor to scaleFactor
//Calling with the same seed will yield the same sequence
func DRNGFloat64SliceCustomScale(length int, seed int64, scaleFactor float64) []float64 {
	dRNG := rand.New(rand.NewSource(seed))
	buf := make([]float64, length)
	for i := 0; i < length; i++ {
		sign := dRNG.Float32()
		buf[i] = dRNG.Float64() * scaleFactor
		if sign <= 0.5 {
			buf[i] *= -1
		}
	}
	return buf
}

//DRNGIntSlice returns length pseudo random integers in [0,n[, deterministic for a given seed.
//Raw instrument samples are integer ADC counts, this is used to fill synthetic records
func DRNGIntSlice(length int, seed int64, n int) []int {
	dRNG := rand.New(rand.NewSource(seed))
	buf := make([]int, length)
	for i := range buf {
		buf[i] = dRNG.Intn(n)
	}
	return buf
}
