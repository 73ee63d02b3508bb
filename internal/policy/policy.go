// Package policy holds the authorization rules for tasks in one place,
// so the boundary only authenticates and the service always re-authorizes.
package policy

import (
	"github.com/google/uuid"
	"github.com/taskhub-dev/taskhub/internal/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Principal is the authenticated identity a request acts as.
type Principal struct {
	ID   uuid.UUID
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Allowed reports whether the principal may perform action on task.
// Admins may perform any action. Creators may read, update and delete
// their own tasks. Assignees may only read.
func Allowed(p Principal, action Action, task *models.Task) bool {
	if p.IsAdmin() {
		return true
	}

	switch action {
	case ActionRead:
		if task.CreatedBy == p.ID {
			return true
		}
		return task.AssignedTo != nil && *task.AssignedTo == p.ID
	case ActionUpdate, ActionDelete:
		return task.CreatedBy == p.ID
	default:
		return false
	}
}
