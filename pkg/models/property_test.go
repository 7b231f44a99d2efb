package models

import (
	"errors"
	"testing"
	"time"

	"github.com/tiw/ontology-fk/pkg/apperrors"
)

func TestCheckValue(t *testing.T) {
	tests := []struct {
		name    string
		kind    PropertyKind
		value   any
		wantErr bool
	}{
		{name: "string ok", kind: KindString, value: "hello"},
		{name: "string rejects int", kind: KindString, value: 7, wantErr: true},
		{name: "integer ok", kind: KindInteger, value: 42},
		{name: "integer accepts int64", kind: KindInteger, value: int64(42)},
		{name: "integer rejects float", kind: KindInteger, value: 4.2, wantErr: true},
		{name: "double ok", kind: KindDouble, value: 4.2},
		{name: "double accepts int", kind: KindDouble, value: 4},
		{name: "double rejects string", kind: KindDouble, value: "4.2", wantErr: true},
		{name: "boolean ok", kind: KindBoolean, value: true},
		{name: "boolean rejects int", kind: KindBoolean, value: 1, wantErr: true},
		{name: "timestamp accepts time", kind: KindTimestamp, value: time.Now()},
		{name: "timestamp accepts string", kind: KindTimestamp, value: "2024-01-01T00:00:00Z"},
		{name: "date rejects int", kind: KindDate, value: 20240101, wantErr: true},
		{name: "nil always accepted", kind: KindInteger, value: nil},
		{name: "unknown kind", kind: PropertyKind("decimal"), value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop := PropertyDefinition{Name: "p", Kind: tt.kind}
			err := prop.CheckValue(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CheckValue(%v) = nil, want error", tt.value)
				}
				if !errors.Is(err, apperrors.ErrValidation) {
					t.Errorf("CheckValue(%v) error = %v, want ErrValidation", tt.value, err)
				}
				return
			}
			if err != nil {
				t.Errorf("CheckValue(%v) = %v, want nil", tt.value, err)
			}
		})
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{name: "int", value: 3, want: 3, ok: true},
		{name: "int64", value: int64(9), want: 9, ok: true},
		{name: "float64", value: 2.5, want: 2.5, ok: true},
		{name: "float32", value: float32(1.5), want: 1.5, ok: true},
		{name: "string", value: "3"},
		{name: "bool", value: true},
		{name: "nil", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NumericValue(tt.value)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NumericValue(%v) = (%v, %v), want (%v, %v)", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestObjectTypeValidate(t *testing.T) {
	t.Run("valid definition", func(t *testing.T) {
		objType := NewObjectType("Order", "order_id").
			AddProperty("order_id", KindString).
			AddProperty("total", KindDouble)
		if err := objType.Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("primary key must be declared", func(t *testing.T) {
		objType := NewObjectType("Order", "order_id").AddProperty("total", KindDouble)
		if err := objType.Validate(); !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("Validate() = %v, want ErrValidation", err)
		}
	})

	t.Run("derived property cannot shadow stored", func(t *testing.T) {
		objType := NewObjectType("Order", "order_id").
			AddProperty("order_id", KindString).
			AddProperty("total", KindDouble).
			AddDerivedProperty("total", KindDouble, "compute_total")
		if err := objType.Validate(); !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("Validate() = %v, want ErrValidation", err)
		}
	})

	t.Run("derived property requires backing function", func(t *testing.T) {
		objType := NewObjectType("Order", "order_id").
			AddProperty("order_id", KindString).
			AddDerivedProperty("age_days", KindInteger, "")
		if err := objType.Validate(); !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("Validate() = %v, want ErrValidation", err)
		}
	})
}

func TestDisplayNameOrDefault(t *testing.T) {
	objType := NewObjectType("order", "order_id")
	objType.DisplayName = ""
	if got := objType.DisplayNameOrDefault(); got != "orders" {
		t.Errorf("DisplayNameOrDefault() = %q, want %q", got, "orders")
	}

	objType.DisplayName = "Customer Orders"
	if got := objType.DisplayNameOrDefault(); got != "Customer Orders" {
		t.Errorf("DisplayNameOrDefault() = %q, want %q", got, "Customer Orders")
	}
}

func TestInstanceAnnotations(t *testing.T) {
	obj := NewObjectInstance("Order", "o1", map[string]any{"total": 10.0})
	obj.Annotate("score:DeliveredBy", 0.9)

	if v, ok := obj.Annotation("score:DeliveredBy"); !ok || v != 0.9 {
		t.Fatalf("Annotation() = (%v, %v), want (0.9, true)", v, ok)
	}

	// Clone keeps properties but drops runtime metadata.
	clone := obj.Clone()
	if v, ok := clone.Get("total"); !ok || v != 10.0 {
		t.Errorf("clone.Get(total) = (%v, %v), want (10.0, true)", v, ok)
	}
	if _, ok := clone.Annotation("score:DeliveredBy"); ok {
		t.Error("clone kept runtime metadata, want it dropped")
	}
}
