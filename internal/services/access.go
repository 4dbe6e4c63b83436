package services

import (
	"github.com/chronica/backend/internal/apperr"
	"github.com/chronica/backend/internal/models"
)

// Operation enumerates everything the policy can gate. Handlers never
// compare role strings themselves; they ask Authorize.
type Operation string

const (
	OperationRead        Operation = "read"
	OperationWrite       Operation = "write"
	OperationDelete      Operation = "delete"
	OperationManageUsers Operation = "manage-users"
)

// Authorize is the single authorization policy. It is a pure function
// over (role, permitted timeline set, target timeline, operation) and
// returns nil on allow or a typed denial.
//
// super_admin is implicitly permitted on every timeline; the permitted
// set only constrains timeline_admin and viewer.
func Authorize(role models.UserRole, permitted []string, timeline string, op Operation) error {
	switch op {
	case OperationManageUsers:
		if role != models.UserRoleSuperAdmin {
			return apperr.New(apperr.KindForbidden, "super admin access required")
		}
		return nil

	case OperationWrite, OperationDelete:
		switch role {
		case models.UserRoleSuperAdmin:
			return nil
		case models.UserRoleTimelineAdmin:
			if !containsTimeline(permitted, timeline) {
				return apperr.New(apperr.KindTimelineAccessDenied, "you do not have access to this timeline")
			}
			return nil
		case models.UserRoleViewer:
			return apperr.New(apperr.KindForbidden, "viewers cannot modify events")
		default:
			return apperr.Newf(apperr.KindForbidden, "unknown role %q", role)
		}

	case OperationRead:
		if role == models.UserRoleSuperAdmin {
			return nil
		}
		if !containsTimeline(permitted, timeline) {
			return apperr.New(apperr.KindTimelineAccessDenied, "you do not have access to this timeline")
		}
		return nil

	default:
		return apperr.Newf(apperr.KindForbidden, "unknown operation %q", op)
	}
}

// VisibleTimelines filters the full catalog down to what the caller may
// read: everything for super_admin, the permitted set for everyone else.
func VisibleTimelines(role models.UserRole, permitted, all []string) []string {
	if role == models.UserRoleSuperAdmin {
		return all
	}

	visible := make([]string, 0, len(permitted))
	for _, name := range all {
		if containsTimeline(permitted, name) {
			visible = append(visible, name)
		}
	}
	return visible
}

// GrantTimeline appends name to the permitted set without duplicating an
// existing entry.
func GrantTimeline(permitted []string, name string) []string {
	if containsTimeline(permitted, name) {
		return permitted
	}
	return append(permitted, name)
}

func containsTimeline(permitted []string, name string) bool {
	for _, entry := range permitted {
		if entry == name {
			return true
		}
	}
	return false
}
