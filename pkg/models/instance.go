package models

// ObjectInstance is one stored entity. It belongs to exactly one object type
// and is keyed by the value of that type's primary-key property, which never
// changes after creation. Instances are only mutated through the staging
// layer so the store can keep its indices and cache coherent.
type ObjectInstance struct {
	TypeAPIName string         `json:"object_type"`
	PrimaryKey  string         `json:"primary_key"`
	Properties  map[string]any `json:"properties"`

	// runtimeMeta carries transient, per-read annotations such as traversal
	// scores and memoized derived properties. Never persisted or indexed.
	runtimeMeta map[string]any
}

// NewObjectInstance creates an instance with a copy of the given properties.
func NewObjectInstance(typeName, pk string, props map[string]any) *ObjectInstance {
	copied := make(map[string]any, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return &ObjectInstance{TypeAPIName: typeName, PrimaryKey: pk, Properties: copied}
}

// Get returns the stored value of a property. Derived properties are
// resolved by the ontology, not here.
func (o *ObjectInstance) Get(name string) (any, bool) {
	v, ok := o.Properties[name]
	return v, ok
}

// Annotate writes transient runtime metadata (scores, memoized values).
func (o *ObjectInstance) Annotate(key string, value any) {
	if o.runtimeMeta == nil {
		o.runtimeMeta = make(map[string]any)
	}
	o.runtimeMeta[key] = value
}

// Annotation reads transient runtime metadata.
func (o *ObjectInstance) Annotation(key string) (any, bool) {
	v, ok := o.runtimeMeta[key]
	return v, ok
}

// ClearAnnotation removes one runtime metadata entry.
func (o *ObjectInstance) ClearAnnotation(key string) {
	delete(o.runtimeMeta, key)
}

// Clone returns a deep-enough copy for staging: property map copied,
// runtime metadata dropped.
func (o *ObjectInstance) Clone() *ObjectInstance {
	return NewObjectInstance(o.TypeAPIName, o.PrimaryKey, o.Properties)
}
