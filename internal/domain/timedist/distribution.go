// Package timedist models the stochastic service and transfer times of the
// production system. Each distribution can sample a non-negative duration
// and report its closed-form expected value, which the routing layer uses
// as a deterministic edge weight.
package timedist

import (
	"math"

	"github.com/reconfigmanus/mes-go/internal/domain/shared"
)

// Kind identifies one of the six supported distribution families
type Kind string

const (
	KindUniform     Kind = "uniform"
	KindNormal      Kind = "normal"
	KindWeibull     Kind = "weibull"
	KindExponential Kind = "exponential"
	KindConstant    Kind = "constant"
	KindTriangular  Kind = "triangular"
)

// Distribution is a time distribution over non-negative durations.
// Sample never returns a negative value; Expected returns 0 when the
// parameters violate the family's preconditions.
type Distribution interface {
	Kind() Kind
	Params() []float64
	Expected() float64
	Sample(r shared.RandSource) float64
}

// Normal is N(mu, sigma)
type Normal struct {
	Mu    float64
	Sigma float64
}

func (d Normal) Kind() Kind        { return KindNormal }
func (d Normal) Params() []float64 { return []float64{d.Mu, d.Sigma} }
func (d Normal) Expected() float64 { return d.Mu }

func (d Normal) Sample(r shared.RandSource) float64 {
	return clampPositive(d.Mu + d.Sigma*r.NormFloat64())
}

// Uniform is U(a, b). Callers must tolerate a > b; sampling swaps the
// bounds, matching the loader's leniency.
type Uniform struct {
	A float64
	B float64
}

func (d Uniform) Kind() Kind        { return KindUniform }
func (d Uniform) Params() []float64 { return []float64{d.A, d.B} }
func (d Uniform) Expected() float64 { return (d.A + d.B) / 2 }

func (d Uniform) Sample(r shared.RandSource) float64 {
	a, b := d.A, d.B
	if b < a {
		a, b = b, a
	}
	if a == b {
		// Zero width degenerates to a point mass
		return clampPositive(a)
	}
	return clampPositive(a + (b-a)*r.Float64())
}

// Exponential is Exp(lambda) where lambda is the rate
type Exponential struct {
	Lambda float64
}

func (d Exponential) Kind() Kind        { return KindExponential }
func (d Exponential) Params() []float64 { return []float64{d.Lambda} }

func (d Exponential) Expected() float64 {
	if d.Lambda <= 0 {
		return 0
	}
	return 1 / d.Lambda
}

func (d Exponential) Sample(r shared.RandSource) float64 {
	if d.Lambda <= 0 {
		return 0
	}
	return clampPositive(r.ExpFloat64() / d.Lambda)
}

// Constant always takes the same value
type Constant struct {
	Value float64
}

func (d Constant) Kind() Kind        { return KindConstant }
func (d Constant) Params() []float64 { return []float64{d.Value} }
func (d Constant) Expected() float64 { return d.Value }

func (d Constant) Sample(_ shared.RandSource) float64 {
	return clampPositive(d.Value)
}

// Triangular is Tri(a, b, c) with lower bound a, upper bound b and mode c.
// The mode is clamped into [a, b] when sampling.
type Triangular struct {
	A float64
	B float64
	C float64
}

func (d Triangular) Kind() Kind        { return KindTriangular }
func (d Triangular) Params() []float64 { return []float64{d.A, d.B, d.C} }
func (d Triangular) Expected() float64 { return (d.A + d.B + d.C) / 3 }

// Sample uses the inverse CDF: with Fc = (c-a)/(b-a) and u ~ U(0,1),
// x = a + sqrt(u(b-a)(c-a)) when u < Fc, else x = b - sqrt((1-u)(b-a)(b-c))
func (d Triangular) Sample(r shared.RandSource) float64 {
	a, b, c := d.A, d.B, d.C
	if b < a {
		a, b = b, a
	}
	if a == b {
		// Zero width degenerates to a point mass
		return clampPositive(a)
	}
	if c < a {
		c = a
	}
	if c > b {
		c = b
	}
	u := r.Float64()
	fc := (c - a) / (b - a)
	var x float64
	if u < fc {
		x = a + math.Sqrt(u*(b-a)*(c-a))
	} else {
		x = b - math.Sqrt((1-u)*(b-a)*(b-c))
	}
	return clampPositive(x)
}

// Weibull is Weib(k, lambda) with shape k and scale lambda
type Weibull struct {
	K      float64
	Lambda float64
}

func (d Weibull) Kind() Kind        { return KindWeibull }
func (d Weibull) Params() []float64 { return []float64{d.K, d.Lambda} }

func (d Weibull) Expected() float64 {
	if d.K <= 0 || d.Lambda <= 0 {
		return 0
	}
	return d.Lambda * math.Gamma(1+1/d.K)
}

func (d Weibull) Sample(r shared.RandSource) float64 {
	if d.K <= 0 || d.Lambda <= 0 {
		return 0
	}
	u := r.Float64()
	return clampPositive(d.Lambda * math.Pow(-math.Log(1-u), 1/d.K))
}

func clampPositive(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}
