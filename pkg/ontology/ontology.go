// Package ontology wires the schema registry, entity store, indices, cache,
// function table, permission gate, and event emitter into one engine value.
// One Ontology is one consistency domain: all mutating calls against it must
// be serialized by the host (a mutex or a single-writer queue); reads during
// a commit are safe only under that same serialization. The engine itself
// starts no goroutines and never blocks.
package ontology

import (
	"fmt"
	"time"

	"github.com/tiw/ontology-fk/pkg/acl"
	"github.com/tiw/ontology-fk/pkg/actions"
	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/cache"
	"github.com/tiw/ontology-fk/pkg/events"
	"github.com/tiw/ontology-fk/pkg/functions"
	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/query"
	"github.com/tiw/ontology-fk/pkg/schema"
	"github.com/tiw/ontology-fk/pkg/store"
)

// Options configures the optional collaborators. Zero values are safe:
// nil Cache disables caching, nil Gate allows everything, nil Events is
// silent.
type Options struct {
	Cache      *cache.MultiTier
	Gate       acl.Gate
	Events     *events.Emitter
	DerivedTTL time.Duration
}

const defaultDerivedTTL = 30 * time.Second

// Ontology is the engine. It implements query.Backend and actions.Backend.
type Ontology struct {
	registry  *schema.Registry
	functions *functions.Registry
	entities  *store.EntityStore
	links     *store.LinkStore
	cache     *cache.MultiTier
	gate      acl.Gate
	emitter   *events.Emitter

	generations map[string]uint64
	derivedTTL  time.Duration
	now         func() time.Time
}

// New creates an engine over a schema registry and function table.
func New(registry *schema.Registry, fns *functions.Registry, opts Options) *Ontology {
	gate := opts.Gate
	if gate == nil {
		gate = acl.AllowAll{}
	}
	emitter := opts.Events
	if emitter == nil {
		emitter = &events.Emitter{}
	}
	ttl := opts.DerivedTTL
	if ttl <= 0 {
		ttl = defaultDerivedTTL
	}
	return &Ontology{
		registry:    registry,
		functions:   fns,
		entities:    store.NewEntityStore(registry),
		links:       store.NewLinkStore(),
		cache:       opts.Cache,
		gate:        gate,
		emitter:     emitter,
		generations: make(map[string]uint64),
		derivedTTL:  ttl,
		now:         time.Now,
	}
}

// Backend plumbing shared by the query and staging layers.

func (o *Ontology) SchemaRegistry() *schema.Registry    { return o.registry }
func (o *Ontology) EntityStore() *store.EntityStore     { return o.entities }
func (o *Ontology) LinkStore() *store.LinkStore         { return o.links }
func (o *Ontology) Cache() *cache.MultiTier             { return o.cache }
func (o *Ontology) Functions() *functions.Registry      { return o.functions }
func (o *Ontology) Events() *events.Emitter             { return o.emitter }
func (o *Ontology) Gate() acl.Gate                      { return o.gate }
func (o *Ontology) QueryGeneration(typeName string) uint64 {
	return o.generations[typeName]
}
func (o *Ontology) BumpQueryGeneration(typeName string) {
	o.generations[typeName]++
}

// Objects returns a lazy plan over the type for an anonymous principal.
func (o *Ontology) Objects(typeName string) (*query.ObjectSet, error) {
	return o.ObjectsAs("", typeName)
}

// ObjectsAs returns a lazy plan over the type; the principal is consulted
// by the permission gate when the plan materializes a gated type.
func (o *Ontology) ObjectsAs(principal, typeName string) (*query.ObjectSet, error) {
	objType, ok := o.registry.ObjectType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, typeName)
	}
	return query.NewObjectSet(o, objType, principal), nil
}

// Object is a read-through-cache point lookup.
func (o *Ontology) Object(typeName, pk string) (*models.ObjectInstance, error) {
	return o.ObjectAs("", typeName, pk)
}

// ObjectAs is Object with an explicit principal for gated types.
func (o *Ontology) ObjectAs(principal, typeName, pk string) (*models.ObjectInstance, error) {
	objType, ok := o.registry.ObjectType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, typeName)
	}
	if objType.PermissionGated && !o.gate.Allowed(principal, typeName, acl.PermView) {
		return nil, fmt.Errorf("%w: principal %q cannot view %q",
			apperrors.ErrPermissionDenied, principal, typeName)
	}

	key := cache.ObjectKey(typeName, pk)
	if v, ok := o.cache.Get(key); ok {
		if obj, ok := v.(*models.ObjectInstance); ok {
			return obj, nil
		}
	}
	obj, ok := o.entities.Get(typeName, pk)
	if !ok {
		return nil, fmt.Errorf("%w: object %s:%s", apperrors.ErrNotFound, typeName, pk)
	}
	o.cache.Set(key, obj, cache.TierL1)
	return obj, nil
}

// NewAction opens a staging context for the principal. Writes only reach
// the store through a context's Commit.
func (o *Ontology) NewAction(principal string) *actions.Context {
	return actions.NewContext(o, principal)
}

// CreateIndex builds a secondary or composite index on the type.
func (o *Ontology) CreateIndex(typeName string, attrs ...string) error {
	return o.entities.CreateIndex(typeName, attrs...)
}
