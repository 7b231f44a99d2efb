package query

import (
	"time"

	"github.com/tiw/ontology-fk/pkg/models"
)

// Op is a comparator for FilterWhere.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

type predicate struct {
	attr  string
	op    Op
	value any
}

// matches evaluates one predicate against an instance. An absent attribute
// never matches; missing values are excluded, not coerced.
func (p predicate) matches(obj *models.ObjectInstance) bool {
	v, ok := obj.Get(p.attr)
	if !ok || v == nil {
		return false
	}
	switch p.op {
	case OpEq:
		return valuesEqual(v, p.value)
	case OpNe:
		return !valuesEqual(v, p.value)
	case OpGt, OpGte, OpLt, OpLte:
		cmp, comparable := compareValues(v, p.value)
		if !comparable {
			return false
		}
		switch p.op {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	return false
}

func filterInstances(objs []*models.ObjectInstance, preds []predicate) []*models.ObjectInstance {
	if len(preds) == 0 {
		return objs
	}
	out := make([]*models.ObjectInstance, 0, len(objs))
outer:
	for _, obj := range objs {
		for _, p := range preds {
			if !p.matches(obj) {
				continue outer
			}
		}
		out = append(out, obj)
	}
	return out
}

// valuesEqual compares across the numeric kinds so an int filter matches an
// int64 stored value.
func valuesEqual(a, b any) bool {
	if an, ok := models.NumericValue(a); ok {
		bn, ok := models.NumericValue(b)
		return ok && an == bn
	}
	return a == b
}

// compareValues orders two values of the same family: numerics, strings, or
// timestamps. The second return is false when they are not comparable.
func compareValues(a, b any) (int, bool) {
	if an, ok := models.NumericValue(a); ok {
		bn, ok := models.NumericValue(b)
		if !ok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
