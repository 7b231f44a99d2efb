package actions

import (
	"fmt"

	"github.com/tiw/ontology-fk/pkg/acl"
	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/cache"
	"github.com/tiw/ontology-fk/pkg/events"
	"github.com/tiw/ontology-fk/pkg/models"
)

// Commit applies the staged batch as one logical unit. It runs three
// passes: permission checks, referential validation against a shadow view,
// and apply. Any failure in the first two passes rejects the whole batch
// with the store byte-for-byte unchanged; the apply pass cannot fail on
// inputs the validation pass accepted. Touched cache entries are
// invalidated before Commit returns, so readers never observe a commit as
// partially applied.
func (c *Context) Commit() error {
	if len(c.changes) == 0 {
		return nil
	}
	if err := c.checkPermissions(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	c.apply()
	c.changes = nil
	return nil
}

func (c *Context) checkPermissions() error {
	reg := c.backend.SchemaRegistry()
	gate := c.backend.Gate()

	check := func(typeName string, perm acl.Permission) error {
		objType, ok := reg.ObjectType(typeName)
		if !ok || !objType.PermissionGated {
			return nil
		}
		if gate.Allowed(c.principal, typeName, perm) {
			return nil
		}
		return fmt.Errorf("%w: principal %q cannot %s %q",
			apperrors.ErrPermissionDenied, c.principal, perm, typeName)
	}

	for _, ch := range c.changes {
		switch ch.kind {
		case createObject, updateObject:
			if err := check(ch.objectType, acl.PermEdit); err != nil {
				return err
			}
		case deleteObject:
			if err := check(ch.objectType, acl.PermDelete); err != nil {
				return err
			}
		case createLink, deleteLink:
			linkType, _ := reg.LinkType(ch.link.TypeAPIName)
			if err := check(linkType.SourceType, acl.PermEdit); err != nil {
				return err
			}
			if err := check(linkType.TargetType, acl.PermEdit); err != nil {
				return err
			}
		}
	}
	return nil
}

// shadow tracks the would-be state of the store as staged changes are
// replayed in order, without mutating anything.
type shadow struct {
	ctx *Context
	// objects: type -> pk -> exists (false = staged delete)
	objects map[string]map[string]bool
	// links: link overlay, true = staged create, false = staged delete
	links map[models.Link]bool
}

func (s *shadow) objectExists(typeName, pk string) bool {
	if exists, staged := s.objects[typeName][pk]; staged {
		return exists
	}
	_, ok := s.ctx.backend.EntityStore().Get(typeName, pk)
	return ok
}

func (s *shadow) setObject(typeName, pk string, exists bool) {
	byPK := s.objects[typeName]
	if byPK == nil {
		byPK = make(map[string]bool)
		s.objects[typeName] = byPK
	}
	byPK[pk] = exists
}

func (s *shadow) linkExists(link models.Link) bool {
	if exists, staged := s.links[link]; staged {
		return exists
	}
	return s.ctx.backend.LinkStore().Has(link)
}

func (c *Context) validateBatch() error {
	reg := c.backend.SchemaRegistry()
	sh := &shadow{
		ctx:     c,
		objects: make(map[string]map[string]bool),
		links:   make(map[models.Link]bool),
	}

	for _, ch := range c.changes {
		switch ch.kind {
		case createObject:
			if sh.objectExists(ch.objectType, ch.pk) {
				return fmt.Errorf("%w: object %s:%s already exists",
					apperrors.ErrValidation, ch.objectType, ch.pk)
			}
			sh.setObject(ch.objectType, ch.pk, true)
		case updateObject:
			if !sh.objectExists(ch.objectType, ch.pk) {
				return fmt.Errorf("%w: object %s:%s", apperrors.ErrNotFound, ch.objectType, ch.pk)
			}
		case deleteObject:
			if !sh.objectExists(ch.objectType, ch.pk) {
				return fmt.Errorf("%w: object %s:%s", apperrors.ErrNotFound, ch.objectType, ch.pk)
			}
			sh.setObject(ch.objectType, ch.pk, false)
			// The cascade drops links touching the object; reflect that in
			// the overlay so later staged link deletes see them gone.
			for _, linkType := range reg.LinkTypesFor(ch.objectType) {
				for _, link := range c.backend.LinkStore().Links(linkType.APIName) {
					if link.SourcePK == ch.pk || link.TargetPK == ch.pk {
						sh.links[link] = false
					}
				}
			}
		case createLink:
			linkType, _ := reg.LinkType(ch.link.TypeAPIName)
			if !sh.objectExists(linkType.SourceType, ch.link.SourcePK) {
				return fmt.Errorf("%w: source %s:%s of link %q",
					apperrors.ErrDanglingReference, linkType.SourceType, ch.link.SourcePK, linkType.APIName)
			}
			if !sh.objectExists(linkType.TargetType, ch.link.TargetPK) {
				return fmt.Errorf("%w: target %s:%s of link %q",
					apperrors.ErrDanglingReference, linkType.TargetType, ch.link.TargetPK, linkType.APIName)
			}
			sh.links[ch.link] = true
		case deleteLink:
			if !sh.linkExists(ch.link) {
				return fmt.Errorf("%w: link %s(%s -> %s)", apperrors.ErrNotFound,
					ch.link.TypeAPIName, ch.link.SourcePK, ch.link.TargetPK)
			}
			sh.links[ch.link] = false
		}
	}
	return nil
}

func (c *Context) apply() {
	reg := c.backend.SchemaRegistry()
	st := c.backend.EntityStore()
	links := c.backend.LinkStore()
	emitter := c.backend.Events()

	touchedKeys := make(map[string]struct{})
	touchedTypes := make(map[string]struct{})

	for _, ch := range c.changes {
		switch ch.kind {
		case createObject:
			obj := models.NewObjectInstance(ch.objectType, ch.pk, ch.props)
			// Validation pass guarantees the type exists.
			_ = st.Put(obj)
			touchedKeys[cache.ObjectKey(ch.objectType, ch.pk)] = struct{}{}
			touchedTypes[ch.objectType] = struct{}{}
			emitter.Emit(events.ObjectCreated{TypeAPIName: ch.objectType, PrimaryKey: ch.pk})
		case updateObject:
			existing, _ := st.Get(ch.objectType, ch.pk)
			updated := existing.Clone()
			names := make([]string, 0, len(ch.props))
			for name, value := range ch.props {
				updated.Properties[name] = value
				names = append(names, name)
			}
			_ = st.Put(updated)
			touchedKeys[cache.ObjectKey(ch.objectType, ch.pk)] = struct{}{}
			touchedTypes[ch.objectType] = struct{}{}
			emitter.Emit(events.ObjectUpdated{TypeAPIName: ch.objectType, PrimaryKey: ch.pk, Properties: names})
		case deleteObject:
			st.Delete(ch.objectType, ch.pk)
			touchedKeys[cache.ObjectKey(ch.objectType, ch.pk)] = struct{}{}
			touchedTypes[ch.objectType] = struct{}{}
			for _, linkType := range reg.LinkTypesFor(ch.objectType) {
				for _, removed := range links.RemoveRefs(linkType.APIName, ch.pk) {
					touchedTypes[linkType.SourceType] = struct{}{}
					touchedTypes[linkType.TargetType] = struct{}{}
					emitter.Emit(events.LinkDeleted{
						LinkTypeAPIName: removed.TypeAPIName,
						SourcePK:        removed.SourcePK,
						TargetPK:        removed.TargetPK,
					})
				}
			}
			emitter.Emit(events.ObjectDeleted{TypeAPIName: ch.objectType, PrimaryKey: ch.pk})
		case createLink:
			links.Add(ch.link)
			linkType, _ := reg.LinkType(ch.link.TypeAPIName)
			touchedTypes[linkType.SourceType] = struct{}{}
			touchedTypes[linkType.TargetType] = struct{}{}
			emitter.Emit(events.LinkCreated{
				LinkTypeAPIName: ch.link.TypeAPIName,
				SourcePK:        ch.link.SourcePK,
				TargetPK:        ch.link.TargetPK,
			})
		case deleteLink:
			links.Remove(ch.link)
			linkType, _ := reg.LinkType(ch.link.TypeAPIName)
			touchedTypes[linkType.SourceType] = struct{}{}
			touchedTypes[linkType.TargetType] = struct{}{}
			emitter.Emit(events.LinkDeleted{
				LinkTypeAPIName: ch.link.TypeAPIName,
				SourcePK:        ch.link.SourcePK,
				TargetPK:        ch.link.TargetPK,
			})
		}
	}

	for key := range touchedKeys {
		c.backend.Cache().Invalidate(key)
	}
	for typeName := range touchedTypes {
		c.backend.BumpQueryGeneration(typeName)
	}
}
