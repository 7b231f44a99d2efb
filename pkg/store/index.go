package store

import (
	"fmt"
	"strings"

	"github.com/tiw/ontology-fk/pkg/models"
)

// index maps an encoded attribute value (or ordered tuple) to the set of
// primary keys whose instances carry those values. Instances missing any of
// the indexed attributes are simply absent from the index; lookups for them
// fall back to the predicate re-check in the query layer.
type index struct {
	id         string
	objectType string
	attrs      []string
	entries    map[string]map[string]struct{}
	createdSeq int
}

func newIndex(objectType string, attrs []string, seq int) *index {
	id := objectType + "." + strings.Join(attrs, "+")
	return &index{
		id:         id,
		objectType: objectType,
		attrs:      append([]string(nil), attrs...),
		entries:    make(map[string]map[string]struct{}),
		createdSeq: seq,
	}
}

func (x *index) key(obj *models.ObjectInstance) (string, bool) {
	vals := make([]any, len(x.attrs))
	for i, attr := range x.attrs {
		v, ok := obj.Get(attr)
		if !ok || v == nil {
			return "", false
		}
		vals[i] = v
	}
	return encodeValues(vals), true
}

func (x *index) add(obj *models.ObjectInstance) {
	k, ok := x.key(obj)
	if !ok {
		return
	}
	set := x.entries[k]
	if set == nil {
		set = make(map[string]struct{})
		x.entries[k] = set
	}
	set[obj.PrimaryKey] = struct{}{}
}

func (x *index) remove(obj *models.ObjectInstance) {
	k, ok := x.key(obj)
	if !ok {
		return
	}
	set := x.entries[k]
	delete(set, obj.PrimaryKey)
	if len(set) == 0 {
		delete(x.entries, k)
	}
}

func (x *index) lookup(vals []any) map[string]struct{} {
	set := x.entries[encodeValues(vals)]
	out := make(map[string]struct{}, len(set))
	for pk := range set {
		out[pk] = struct{}{}
	}
	return out
}

func (x *index) distinct() int {
	return len(x.entries)
}

func (x *index) covers(attrs map[string]struct{}) bool {
	for _, a := range x.attrs {
		if _, ok := attrs[a]; !ok {
			return false
		}
	}
	return true
}

// encodeValues renders an attribute value tuple as a stable map key.
// Numerics collapse to float64 first so int and int64 writes of the same
// number land on the same entry.
func encodeValues(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if n, ok := models.NumericValue(v); ok {
			fmt.Fprintf(&b, "n:%g", n)
			continue
		}
		fmt.Fprintf(&b, "%T:%v", v, v)
	}
	return b.String()
}
