package timedist

import "fmt"

// New builds a Distribution from a configuration tag and parameter vector.
// Unknown kinds and wrong arities are configuration errors; the tagged
// variants make them impossible to represent after loading.
func New(kind Kind, params []float64) (Distribution, error) {
	switch kind {
	case KindNormal:
		if len(params) != 2 {
			return nil, arityError(kind, 2, len(params))
		}
		return Normal{Mu: params[0], Sigma: params[1]}, nil
	case KindUniform:
		if len(params) != 2 {
			return nil, arityError(kind, 2, len(params))
		}
		return Uniform{A: params[0], B: params[1]}, nil
	case KindExponential:
		if len(params) != 1 {
			return nil, arityError(kind, 1, len(params))
		}
		return Exponential{Lambda: params[0]}, nil
	case KindConstant:
		if len(params) != 1 {
			return nil, arityError(kind, 1, len(params))
		}
		return Constant{Value: params[0]}, nil
	case KindTriangular:
		if len(params) != 3 {
			return nil, arityError(kind, 3, len(params))
		}
		return Triangular{A: params[0], B: params[1], C: params[2]}, nil
	case KindWeibull:
		if len(params) != 2 {
			return nil, arityError(kind, 2, len(params))
		}
		return Weibull{K: params[0], Lambda: params[1]}, nil
	default:
		return nil, fmt.Errorf("unknown time distribution type %q", kind)
	}
}

func arityError(kind Kind, want, got int) error {
	return fmt.Errorf("time distribution %q expects %d parameters, got %d", kind, want, got)
}
