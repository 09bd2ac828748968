// Package sphere implements the bit-exact projection of a seed onto the unit
// 3-sphere S^3 and the 128-bit Hilbert index derived from that projection.
//
// Every function here is pure and deterministic: no goroutines, no global
// state, no platform-dependent floating point behavior. sin/cos evaluation
// order matches a single canonical sequence of operations so that two
// processes on two different operating systems produce byte-identical
// doubles for the same seed (spec.md §4.1's cross-platform determinism
// contract). Single-precision intermediates and fused-multiply-add are never
// used.
package sphere

import (
	"math"

	"github.com/AHartTN/hypersphere/internal/model"
)

// Golden is the golden angle 2π/φ², used by the codepoint and integer
// projection paths to spiral samples around a latitude band without
// clustering.
var Golden = 2 * math.Pi / (Phi * Phi)

// Phi is the golden ratio.
const Phi = 1.618033988749894848204586834365638117720309179805762862135

const poleGuard = 1e-3 // radians kept clear of the poles for ψ and θ

// latitudeBands assigns each of the 16 values unicodeBand returns a fixed ψ
// latitude band, in radians, measured from the north pole (ψ=0). Bands are
// deliberately spread evenly across (0, π) so that codepoints from different
// bands do not collide onto the same ring.
var latitudeBands = [16]float64{
	math.Pi * 1 / 32, math.Pi * 3 / 32, math.Pi * 5 / 32, math.Pi * 7 / 32,
	math.Pi * 9 / 32, math.Pi * 11 / 32, math.Pi * 13 / 32, math.Pi * 15 / 32,
	math.Pi * 17 / 32, math.Pi * 19 / 32, math.Pi * 21 / 32, math.Pi * 23 / 32,
	math.Pi * 25 / 32, math.Pi * 27 / 32, math.Pi * 29 / 32, math.Pi * 31 / 32,
}

// unicodeBand buckets a codepoint into one of the 16 latitude bands using
// bits 12-15 of its scalar value: every codepoint in the same 4096-codepoint
// block lands in the same band. The band does not depend on the codepoint's
// Unicode general category; no category table is consulted.
func unicodeBand(codepoint uint32) int {
	return int((codepoint >> 12) & 0xF)
}

func clampPole(psi float64) float64 {
	if psi < poleGuard {
		return poleGuard
	}
	if psi > math.Pi-poleGuard {
		return math.Pi - poleGuard
	}
	return psi
}

func wrapTwoPi(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// anglesForCodepoint derives (ψ, θ, φ) for a UNICODE_CODEPOINT seed.
func anglesForCodepoint(codepoint uint32, index uint64) (psi, theta, phi float64) {
	band := latitudeBands[unicodeBand(codepoint)]
	perturb := float64(codepoint%1000) / 1000.0 * (math.Pi / 32)
	psi = band + perturb
	theta = math.Mod(float64(index)*Golden, math.Pi)
	phi = math.Mod(float64(codepoint)*1.5*Golden, 2*math.Pi)
	return
}

// anglesForInteger derives (ψ, θ, φ) for an INTEGER_64 seed.
func anglesForInteger(v int64) (psi, theta, phi float64) {
	if v < 0 {
		psi = math.Pi / 4
	} else {
		psi = 3 * math.Pi / 4
	}
	mag := math.Abs(float64(v))
	theta = math.Mod(mag*Golden, math.Pi)
	phi = math.Mod(mag*1.5*Golden, 2*math.Pi)
	return
}

// anglesForFloatBits derives (ψ, θ, φ) from an IEEE-754 bit pattern, shared
// by FLOAT32_BITS (zero-extended into the 64-bit layout) and FLOAT64_BITS.
func anglesForFloatBits(bits uint64, exponentBits, mantissaBits int) (psi, theta, phi float64) {
	signMask := uint64(1) << (exponentBits + mantissaBits)
	exponentMask := (uint64(1)<<exponentBits - 1) << mantissaBits
	mantissaMask := uint64(1)<<mantissaBits - 1

	sign := (bits & signMask) != 0
	exponent := (bits & exponentMask) >> mantissaBits
	mantissa := bits & mantissaMask

	maxExponent := uint64(1)<<exponentBits - 1
	psi = math.Pi * (float64(exponent) / float64(maxExponent))

	highMantissaBits := mantissaBits / 2
	highMantissa := mantissa >> uint(mantissaBits-highMantissaBits)
	lowMantissa := mantissa & (uint64(1)<<uint(mantissaBits-highMantissaBits) - 1)

	theta = math.Mod(float64(highMantissa)*Golden, math.Pi)
	phi = math.Mod(float64(lowMantissa)*Golden, 2*math.Pi)
	if sign {
		phi += math.Pi
	}
	return
}

// anglesFor dispatches on seed type, following spec.md §4.1 exactly.
func anglesFor(seed model.Seed) (psi, theta, phi float64) {
	switch seed.Type {
	case model.SeedUnicodeCodepoint:
		return anglesForCodepoint(uint32(seed.Value), seed.Value)
	case model.SeedInteger64:
		return anglesForInteger(int64(seed.Value))
	case model.SeedFloat32Bits:
		return anglesForFloatBits(seed.Value&0xFFFFFFFF, 8, 23)
	case model.SeedFloat64Bits:
		return anglesForFloatBits(seed.Value, 11, 52)
	case model.SeedByte:
		// A byte is treated as a small unsigned integer for projection
		// purposes: same recurrence as INTEGER_64, always in the positive
		// hemisphere.
		return anglesForInteger(int64(seed.Value))
	default:
		return anglesForInteger(int64(seed.Value))
	}
}

// Project computes the deterministic point on S^3 for seed. It is total: no
// seed causes an error.
func Project(seed model.Seed) model.Point4D {
	psi, theta, phi := anglesFor(seed)
	psi = clampPole(psi)
	theta = clampPole(theta)
	phi = wrapTwoPi(phi)

	sinPsi, cosPsi := math.Sincos(psi)
	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)

	return model.Point4D{
		X: sinPsi * sinTheta * cosPhi,
		Y: sinPsi * sinTheta * sinPhi,
		Z: sinPsi * cosTheta,
		M: cosPsi,
	}
}
