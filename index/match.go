package index

import "fmt"

// Match evaluates a single filter clause directly against a field value,
// without going through any index. Table falls back to this for fields
// with no index, or for indexes whose PositionsForQuery reports the
// operator unsupported.
func Match(op Operator, fieldValue, queryValue any) (bool, error) {
	switch op {
	case Eq:
		return fieldValue == queryValue, nil
	case In:
		candidates, err := toSlice(queryValue)
		if err != nil {
			return false, err
		}
		for _, c := range candidates {
			if c == fieldValue {
				return true, nil
			}
		}
		return false, nil
	case Gt, Ge, Lt, Le:
		c, err := compare(fieldValue, queryValue)
		if err != nil {
			return false, err
		}
		switch op {
		case Gt:
			return c > 0, nil
		case Ge:
			return c >= 0, nil
		case Lt:
			return c < 0, nil
		default: // Le
			return c <= 0, nil
		}
	default:
		return false, fmt.Errorf("index: unsupported operator %q", op)
	}
}
