package oscquery

import (
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/rnboctl/internal/errors"
)

// Extract coerces a node value to a number. Absent values and empty
// sequences fail with ErrPathAbsent; null, non-numeric and non-finite values
// fail with ErrInvalidValue carrying the raw value. Neither is a fault: both
// mean there is nothing to act on this cycle.
func Extract(v Value) (float64, error) {
	errFactory := errors.New()

	s, ok := v.First()
	if !ok {
		return 0, errFactory.WithData(ErrPathAbsent, v.String())
	}

	var (
		f   float64
		err error
	)
	switch s.Type {
	case ScalarNumber:
		f, err = strconv.ParseFloat(s.Text, 64)
	case ScalarString:
		f, err = strconv.ParseFloat(strings.TrimSpace(s.Text), 64)
	case ScalarBool:
		if s.Text == "true" {
			f = 1
		}
	default:
		return 0, errFactory.WithData(ErrInvalidValue, v.String())
	}

	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errFactory.WithData(ErrInvalidValue, v.String())
	}

	return f, nil
}
