package session

import (
	"fmt"
	"math"
	"math/big"

	"github.com/multich/subtx/audio"
)

// Ratio is an integer interpolation/decimation pair for a rational
// sample-rate conversion stage.
type Ratio struct {
	Interp int
	Decim  int
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Interp, r.Decim)
}

// Apply returns srcRate converted through the ratio.
func (r Ratio) Apply(srcRate float64) float64 {
	return srcRate * float64(r.Interp) / float64(r.Decim)
}

// DeriveRatio finds the smallest interpolation/decimation pair such that
// srcRate * interp / decim matches dstRate within tol relative error,
// searching denominators up to maxDenom via best rational approximation
// (continued-fraction convergents with the closer semiconvergent, the
// classic limit-denominator construction). This is a configuration-time
// check: an unreachable rate fails here, before any streaming starts.
func DeriveRatio(srcRate, dstRate float64, maxDenom int, tol float64) (Ratio, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return Ratio{}, fmt.Errorf(
			"%w: rates must be positive (source %g Hz, target %g Hz)",
			audio.ErrValidation, srcRate, dstRate,
		)
	}
	if maxDenom < 1 {
		return Ratio{}, fmt.Errorf("%w: maximum denominator must be at least 1", audio.ErrValidation)
	}

	exact := new(big.Rat).SetFloat64(dstRate / srcRate)
	if exact == nil {
		return Ratio{}, fmt.Errorf(
			"%w: cannot express %g Hz / %g Hz as a rational", audio.ErrRateMismatch, dstRate, srcRate,
		)
	}

	approx := limitDenominator(exact, int64(maxDenom))
	ratio := Ratio{
		Interp: int(approx.Num().Int64()),
		Decim:  int(approx.Denom().Int64()),
	}

	actual := ratio.Apply(srcRate)
	if math.Abs(actual-dstRate)/dstRate > tol {
		return Ratio{}, fmt.Errorf(
			"%w: closest pair %s maps %g Hz to %g Hz, target %g Hz (max denominator %d)",
			audio.ErrRateMismatch, ratio, srcRate, actual, dstRate, maxDenom,
		)
	}

	return ratio, nil
}

// limitDenominator returns the closest rational to x whose denominator
// does not exceed maxDenom.
func limitDenominator(x *big.Rat, maxDenom int64) *big.Rat {
	limit := big.NewInt(maxDenom)
	if x.Denom().Cmp(limit) <= 0 {
		return new(big.Rat).Set(x)
	}

	// Walk the continued-fraction convergents p/q of x until the
	// denominator bound is hit.
	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(x.Num())
	d := new(big.Int).Set(x.Denom())

	a := new(big.Int)
	rem := new(big.Int)
	for {
		a.QuoRem(n, d, rem)

		q2 := new(big.Int).Mul(a, q1)
		q2.Add(q2, q0)
		if q2.Cmp(limit) > 0 {
			break
		}

		p2 := new(big.Int).Mul(a, p1)
		p2.Add(p2, p0)

		p0, q0, p1, q1 = p1, q1, p2, q2
		n, d = d, new(big.Int).Set(rem)
	}

	// The best approximation is either the last convergent p1/q1 or the
	// semiconvergent (p0 + k*p1)/(q0 + k*q1) with the largest k that
	// keeps the denominator in bounds.
	k := new(big.Int).Sub(limit, q0)
	k.Quo(k, q1)

	semiNum := new(big.Int).Mul(k, p1)
	semiNum.Add(semiNum, p0)
	semiDen := new(big.Int).Mul(k, q1)
	semiDen.Add(semiDen, q0)

	semi := new(big.Rat).SetFrac(semiNum, semiDen)
	conv := new(big.Rat).SetFrac(p1, q1)

	semiErr := new(big.Rat).Sub(semi, x)
	convErr := new(big.Rat).Sub(conv, x)
	if convErr.Abs(convErr).Cmp(semiErr.Abs(semiErr)) <= 0 {
		return conv
	}
	return semi
}
