package runner

import "math"

// floatTolerance absorbs formatting drift when an evaluator in another
// language prints floats with fewer digits than it computed.
const floatTolerance = 1e-9

// Equal performs deep value equality over decoded JSON values: objects are
// compared by key/value regardless of key order, arrays element-wise in
// order, numbers by value rather than representation, everything else by
// exact value.
//
// Both sides must come from encoding/json decoding into any, so the only
// possible shapes are nil, bool, float64, string, []any and map[string]any.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && numbersClose(av, bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, ok := bv[k]
			if !ok || !Equal(v, bval) {
				return false
			}
		}
		return true
	}
	return false
}

// numbersClose compares two float64 values with a small absolute and
// relative tolerance.
func numbersClose(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	if diff <= floatTolerance {
		return true
	}
	largest := math.Max(math.Abs(a), math.Abs(b))
	return diff <= largest*floatTolerance
}
