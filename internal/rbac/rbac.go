// Package rbac holds the static role permission matrix consulted before every
// mutating request.
package rbac

import (
	"fmt"

	"agencyhub/internal/apperr"
)

// Role names a staff role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleDesigner Role = "designer"
	RoleWriter   Role = "writer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := matrix[r]
	return ok
}

// Resource is a guarded entity family.
type Resource string

const (
	Projects Resource = "projects"
	Tasks    Resource = "tasks"
	Clients  Resource = "clients"
	Users    Resource = "users"
)

// Action is an operation on a resource.
type Action string

const (
	Create Action = "create"
	Read   Action = "read"
	Update Action = "update"
	Delete Action = "delete"
	Assign Action = "assign"
	Config Action = "config"
)

type actionSet map[Action]struct{}

func allow(actions ...Action) actionSet {
	set := make(actionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// matrix is built once and never mutated. No role inherits from another.
var matrix = map[Role]map[Resource]actionSet{
	RoleAdmin: {
		Projects: allow(Create, Read, Update, Delete, Config),
		Tasks:    allow(Create, Read, Update, Delete, Assign),
		Clients:  allow(Create, Read, Update, Delete),
		Users:    allow(Create, Read, Update, Delete),
	},
	RoleManager: {
		Projects: allow(Create, Read, Update),
		Tasks:    allow(Create, Read, Update, Delete, Assign),
		Clients:  allow(Create, Read, Update),
		Users:    allow(Read),
	},
	RoleDesigner: {
		Projects: allow(Read),
		Tasks:    allow(Read, Update),
		Clients:  allow(Read),
		Users:    allow(Read),
	},
	RoleWriter: {
		Projects: allow(Read),
		Tasks:    allow(Read, Update),
		Clients:  allow(Read),
		Users:    allow(Read),
	},
}

// HasPermission reports whether role may perform action on resource.
// Anything not listed in the matrix is denied.
func HasPermission(role Role, resource Resource, action Action) bool {
	resources, ok := matrix[role]
	if !ok {
		return false
	}
	_, ok = resources[resource][action]
	return ok
}

// DeniedError is returned by RequirePermission.
type DeniedError struct {
	Role     Role
	Resource Resource
	Action   Action
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("role %q may not %s %s", e.Role, e.Action, e.Resource)
}

func (e *DeniedError) Unwrap() error {
	return apperr.ErrForbidden
}

// RequirePermission returns a *DeniedError when HasPermission is false.
func RequirePermission(role Role, resource Resource, action Action) error {
	if HasPermission(role, resource, action) {
		return nil
	}
	return &DeniedError{Role: role, Resource: resource, Action: action}
}

// Roles lists the known roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleDesigner, RoleWriter}
}

// Resources lists the guarded resources in display order.
func Resources() []Resource {
	return []Resource{Projects, Tasks, Clients, Users}
}

// Allowed returns the actions role may perform on resource in a stable order.
func Allowed(role Role, resource Resource) []Action {
	var out []Action
	for _, a := range []Action{Create, Read, Update, Delete, Assign, Config} {
		if HasPermission(role, resource, a) {
			out = append(out, a)
		}
	}
	return out
}
