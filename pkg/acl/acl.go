// Package acl is the permission gate consulted before access-controlled
// store operations. The engine only needs a boolean answer; how grants are
// managed is the caller's business.
package acl

// Permission is the kind of access being requested.
type Permission string

const (
	PermView   Permission = "view"
	PermEdit   Permission = "edit"
	PermDelete Permission = "delete"
	PermOwner  Permission = "owner"
)

// Gate answers whether a principal may perform an operation on an object
// type. A false result surfaces as a permission-denied error without the
// operation being performed.
type Gate interface {
	Allowed(principal, objectType string, perm Permission) bool
}

// AllowAll is the default gate for ungoverned deployments.
type AllowAll struct{}

func (AllowAll) Allowed(string, string, Permission) bool { return true }

// ACL is a simple in-memory grant table keyed by principal and object type.
type ACL struct {
	grants map[string]map[string]map[Permission]bool
}

// New creates an empty ACL. An empty ACL denies everything.
func New() *ACL {
	return &ACL{grants: make(map[string]map[string]map[Permission]bool)}
}

// Grant records that principal may perform perm on objectType.
func (a *ACL) Grant(principal, objectType string, perm Permission) {
	byType, ok := a.grants[principal]
	if !ok {
		byType = make(map[string]map[Permission]bool)
		a.grants[principal] = byType
	}
	perms, ok := byType[objectType]
	if !ok {
		perms = make(map[Permission]bool)
		byType[objectType] = perms
	}
	perms[perm] = true
}

// Allowed implements Gate. Owners pass every check.
func (a *ACL) Allowed(principal, objectType string, perm Permission) bool {
	perms := a.grants[principal][objectType]
	if perms == nil {
		return false
	}
	return perms[perm] || perms[PermOwner]
}
