package query

import (
	"fmt"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
)

// AggregateFunc names a reduction over one attribute's numeric values.
type AggregateFunc string

const (
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMax   AggregateFunc = "max"
	AggMin   AggregateFunc = "min"
	AggCount AggregateFunc = "count"
)

// Aggregate materializes the plan and reduces over the attribute's numeric
// values. Entities missing the attribute are skipped, never coerced to zero.
// For sum/avg/max/min the attribute's declared kind must be numeric; count
// ignores the attribute entirely.
func (s *ObjectSet) Aggregate(attr string, fn AggregateFunc) (float64, error) {
	objs, err := s.All()
	if err != nil {
		return 0, err
	}

	if fn == AggCount {
		return float64(len(objs)), nil
	}

	prop, declared := s.objectType.Property(attr)
	if !declared {
		return 0, fmt.Errorf("%w: attribute %q is not declared on %q",
			apperrors.ErrAggregation, attr, s.objectType.APIName)
	}
	if !prop.Kind.Numeric() {
		return 0, fmt.Errorf("%w: attribute %q of %q has non-numeric kind %q",
			apperrors.ErrAggregation, attr, s.objectType.APIName, prop.Kind)
	}

	var values []float64
	for _, obj := range objs {
		v, ok := obj.Get(attr)
		if !ok || v == nil {
			continue
		}
		n, numeric := models.NumericValue(v)
		if !numeric {
			return 0, fmt.Errorf("%w: attribute %q holds non-numeric value %T",
				apperrors.ErrAggregation, attr, v)
		}
		values = append(values, n)
	}

	switch fn {
	case AggSum:
		var sum float64
		for _, n := range values {
			sum += n
		}
		return sum, nil
	case AggAvg, AggMax, AggMin:
		if len(values) == 0 {
			return 0, fmt.Errorf("%w: %s over no values", apperrors.ErrAggregation, fn)
		}
		switch fn {
		case AggAvg:
			var sum float64
			for _, n := range values {
				sum += n
			}
			return sum / float64(len(values)), nil
		case AggMax:
			max := values[0]
			for _, n := range values[1:] {
				if n > max {
					max = n
				}
			}
			return max, nil
		default:
			min := values[0]
			for _, n := range values[1:] {
				if n < min {
					min = n
				}
			}
			return min, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown aggregation %q", apperrors.ErrAggregation, fn)
}
