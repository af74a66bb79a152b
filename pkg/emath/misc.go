package emath

import "math"

// Some functions that only operate on basic types, that are useful

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// GammaExpand_Power is the plain power-law encode, f^(1/gamma).
func GammaExpand_Power(f, gamma float64) float64 {
	if f <= 0 || gamma <= 0 {
		return 0
	}
	return math.Pow(f, 1.0/gamma)
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Clamp pins f into [lo, hi]; NaN goes to lo.
func Clamp(f, lo, hi float64) float64 {
	switch {
	case math.IsNaN(f), f < lo:
		return lo
	case f > hi:
		return hi
	}
	return f
}

func ClampInt(i, lo, hi int) int {
	if i < lo {
		return lo
	} else if i > hi {
		return hi
	}
	return i
}

// Reflect101 maps an out of range index back into [0,n) by mirroring
// about the edge sites, without repeating them (-1 -> 1, n -> n-2).
// Steps of 2 preserve parity, which keeps Bayer sites on their own
// channel.
func Reflect101(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// Wrap maps i into [0,n) modulo n.
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
