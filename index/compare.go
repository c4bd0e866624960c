package index

import (
	"fmt"
	"time"

	"golang.org/x/exp/constraints"
)

// compare orders two key values using the field type's natural total
// order, the way RangeIndex needs to keep its backing btree sorted. It
// switches on the value's concrete type rather than attempting a fully
// generic comparison.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("index: cannot compare string with %T", b)
		}
		return compareOrdered(av, bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("index: cannot compare time.Time with %T", b)
		}
		switch {
		case av.Before(bv):
			return -1, nil
		case av.After(bv):
			return 1, nil
		default:
			return 0, nil
		}
	case int:
		return compareNumeric(av, b)
	case int32:
		return compareNumeric(av, b)
	case int64:
		return compareNumeric(av, b)
	case float32:
		return compareNumeric(av, b)
	case float64:
		return compareNumeric(av, b)
	default:
		return 0, fmt.Errorf("index: unsupported key type %T for range index", a)
	}
}

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareNumeric compares a typed numeric a against b, which may arrive as
// any of Go's numeric kinds (field values round-trip through `any`).
func compareNumeric[T constraints.Integer | constraints.Float](a T, b any) (int, error) {
	bf, err := toFloat64(b)
	if err != nil {
		return 0, err
	}
	af := float64(a)
	return compareOrdered(af, bf), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("index: cannot compare numeric with %T", v)
	}
}
