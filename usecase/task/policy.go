package task

import (
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
)

// CanAccess is the ownership gate for single-task reads and mutations:
// admins always pass, everyone else must be the creator or the assignee.
func CanAccess(ident *domain.Identity, task *domain.Task) bool {
	if ident == nil || task == nil {
		return false
	}
	if ident.IsAdmin {
		return true
	}
	return task.CreatedBy == ident.ID || task.AssignedTo == ident.ID
}

// ScopeFor returns the row-level scoping predicate for list operations:
// unrestricted for admins, own-or-assigned for everyone else.
func ScopeFor(ident *domain.Identity) repository.TaskScope {
	if ident != nil && ident.IsAdmin {
		return repository.TaskScope{}
	}
	scope := repository.TaskScope{}
	if ident != nil {
		scope.UserID = ident.ID
	}
	return scope
}
