// Package actions is the transactional staging layer: a context buffers
// creates, updates, deletes, and link changes without touching the store,
// then applies the whole batch atomically on commit. Shape validation
// happens at staging time; referential validation happens at commit time
// against a shadow view that sees earlier staged changes, so a batch is
// rejected as a whole before anything is applied.
package actions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tiw/ontology-fk/pkg/acl"
	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/cache"
	"github.com/tiw/ontology-fk/pkg/events"
	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/schema"
	"github.com/tiw/ontology-fk/pkg/store"
)

// Backend is what the staging layer needs from the engine. Implemented by
// ontology.Ontology.
type Backend interface {
	SchemaRegistry() *schema.Registry
	EntityStore() *store.EntityStore
	LinkStore() *store.LinkStore
	Cache() *cache.MultiTier
	Gate() acl.Gate
	Events() *events.Emitter
	// BumpQueryGeneration invalidates query-signature cache entries for the
	// type by rotating their key space.
	BumpQueryGeneration(typeName string)
}

type changeKind int

const (
	createObject changeKind = iota
	updateObject
	deleteObject
	createLink
	deleteLink
)

type stagedChange struct {
	kind       changeKind
	objectType string
	pk         string
	props      map[string]any
	link       models.Link
}

// Context is one staged batch, owned by a single principal. Contexts are
// single-use: after Commit or Discard the buffer is empty and the context
// can be reused for a fresh batch.
type Context struct {
	id        uuid.UUID
	backend   Backend
	principal string
	changes   []stagedChange
}

// NewContext opens a staging context for the principal.
func NewContext(backend Backend, principal string) *Context {
	return &Context{id: uuid.New(), backend: backend, principal: principal}
}

// ID identifies the batch, for audit logging by callers.
func (c *Context) ID() uuid.UUID { return c.id }

// Pending returns the number of staged changes.
func (c *Context) Pending() int { return len(c.changes) }

// CreateObject stages an object creation and returns its primary key,
// synthesizing one when the properties do not carry it. Property kinds are
// checked immediately; unknown properties and kind mismatches fail here,
// not at commit.
func (c *Context) CreateObject(typeName string, props map[string]any) (string, error) {
	objType, ok := c.backend.SchemaRegistry().ObjectType(typeName)
	if !ok {
		return "", fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, typeName)
	}
	staged := make(map[string]any, len(props)+1)
	for k, v := range props {
		staged[k] = v
	}

	pk, err := resolvePrimaryKey(objType, staged)
	if err != nil {
		return "", err
	}
	staged[objType.PrimaryKey] = pk

	if err := checkPropertyKinds(objType, staged); err != nil {
		return "", err
	}
	c.changes = append(c.changes, stagedChange{
		kind: createObject, objectType: typeName, pk: pk, props: staged,
	})
	return pk, nil
}

// ModifyObject stages attribute updates for an existing object. Updating
// the primary-key attribute to a different value is a validation error;
// primary keys are immutable after creation.
func (c *Context) ModifyObject(typeName, pk string, props map[string]any) error {
	objType, ok := c.backend.SchemaRegistry().ObjectType(typeName)
	if !ok {
		return fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, typeName)
	}
	if v, touchesPK := props[objType.PrimaryKey]; touchesPK && v != any(pk) {
		return fmt.Errorf("%w: primary key %q of %q is immutable",
			apperrors.ErrValidation, objType.PrimaryKey, typeName)
	}
	if err := checkPropertyKinds(objType, props); err != nil {
		return err
	}
	staged := make(map[string]any, len(props))
	for k, v := range props {
		staged[k] = v
	}
	c.changes = append(c.changes, stagedChange{
		kind: updateObject, objectType: typeName, pk: pk, props: staged,
	})
	return nil
}

// DeleteObject stages an object deletion. Links referencing the object are
// cascaded at commit time.
func (c *Context) DeleteObject(typeName, pk string) error {
	if _, ok := c.backend.SchemaRegistry().ObjectType(typeName); !ok {
		return fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, typeName)
	}
	c.changes = append(c.changes, stagedChange{kind: deleteObject, objectType: typeName, pk: pk})
	return nil
}

// CreateLink stages a link creation. Endpoint existence is checked at
// commit time against the shadow view, so a link may reference an object
// staged earlier in the same batch.
func (c *Context) CreateLink(linkTypeName, sourcePK, targetPK string) error {
	if _, ok := c.backend.SchemaRegistry().LinkType(linkTypeName); !ok {
		return fmt.Errorf("%w: link type %q", apperrors.ErrNotFound, linkTypeName)
	}
	c.changes = append(c.changes, stagedChange{
		kind: createLink,
		link: models.Link{TypeAPIName: linkTypeName, SourcePK: sourcePK, TargetPK: targetPK},
	})
	return nil
}

// DeleteLink stages a link deletion.
func (c *Context) DeleteLink(linkTypeName, sourcePK, targetPK string) error {
	if _, ok := c.backend.SchemaRegistry().LinkType(linkTypeName); !ok {
		return fmt.Errorf("%w: link type %q", apperrors.ErrNotFound, linkTypeName)
	}
	c.changes = append(c.changes, stagedChange{
		kind: deleteLink,
		link: models.Link{TypeAPIName: linkTypeName, SourcePK: sourcePK, TargetPK: targetPK},
	})
	return nil
}

// Discard clears the buffer without touching the store.
func (c *Context) Discard() {
	c.changes = nil
}

func resolvePrimaryKey(objType *models.ObjectType, props map[string]any) (string, error) {
	v, present := props[objType.PrimaryKey]
	if !present || v == nil {
		return uuid.NewString(), nil
	}
	pk, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: primary key %q of %q must be a string, got %T",
			apperrors.ErrValidation, objType.PrimaryKey, objType.APIName, v)
	}
	if pk == "" {
		return "", fmt.Errorf("%w: primary key %q of %q must not be empty",
			apperrors.ErrValidation, objType.PrimaryKey, objType.APIName)
	}
	return pk, nil
}

func checkPropertyKinds(objType *models.ObjectType, props map[string]any) error {
	for name, value := range props {
		prop, declared := objType.Property(name)
		if !declared {
			return fmt.Errorf("%w: property %q is not declared on %q",
				apperrors.ErrValidation, name, objType.APIName)
		}
		if err := prop.CheckValue(value); err != nil {
			return err
		}
	}
	return nil
}
