package access

import (
	"errors"

	"github.com/folio-studio/folio-backend/internal/auth/domain"
)

// Operation is one of the four row-level actions.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var ErrForbidden = errors.New("forbidden")

type rule struct {
	read, create, update, delete bool
	// scoped restricts create/update to project-scoped tables and the
	// caller's assigned projects.
	scoped bool
}

var rules = map[string]rule{
	domain.RoleAdmin:        {read: true, create: true, update: true, delete: true},
	domain.RoleEditor:       {read: true, create: true, update: true},
	domain.RoleCollaborator: {read: true, create: true, update: true, scoped: true},
	domain.RoleViewer:       {read: true},
}

// CanAccess is a static lookup of whether profile may perform op on table.
// projectID is the studio project the row belongs to; it only matters for
// scoped roles.
func CanAccess(profile *domain.Profile, op Operation, table, projectID string) bool {
	if profile == nil {
		return false
	}
	t, ok := Lookup(table)
	if !ok {
		return false
	}
	r, ok := rules[profile.Role]
	if !ok {
		return false
	}

	var allowed bool
	switch op {
	case OpRead:
		allowed = r.read
	case OpCreate:
		allowed = r.create
	case OpUpdate:
		allowed = r.update
	case OpDelete:
		allowed = r.delete
	}
	if !allowed {
		return false
	}

	if r.scoped && op != OpRead {
		return t.ProjectColumn != "" && profile.HasProject(projectID)
	}
	return true
}

// Scoped reports whether writes by profile must be confined to projectID.
func Scoped(profile *domain.Profile) bool {
	if profile == nil {
		return true
	}
	return rules[profile.Role].scoped
}

// Readable returns the catalog tables profile may read.
func Readable(profile *domain.Profile) []Table {
	out := make([]Table, 0, len(catalog))
	for _, t := range Tables() {
		if CanAccess(profile, OpRead, t.Name, "") {
			out = append(out, t)
		}
	}
	return out
}
