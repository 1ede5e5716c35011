// Package authz holds the authorization predicates for boards, tasks, and
// comments. All functions are pure: they operate on an Identity and an entity
// snapshot with its board relations preloaded, and never touch the database.
//
// Delete is stricter than read/write everywhere: a relationship to the board
// grants read/write, destruction requires ownership (or authorship, or admin).
package authz

import "github.com/PaFunzFr/KanMind-backend/internal/models"

// Identity is the authenticated principal a request acts as.
type Identity struct {
	UserID  uint64
	IsAdmin bool
}

// Action tags the intent of an access check.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionDelete
)

// CanAccessBoard decides whether the identity may perform the action on the
// board. The board's Members must be preloaded.
//
//   - admins may do anything
//   - the owner may do anything
//   - members may read and write, but not delete
func CanAccessBoard(actor Identity, board *models.Board, action Action) bool {
	if actor.IsAdmin {
		return true
	}

	isOwner := board.OwnerID == actor.UserID
	if action == ActionDelete {
		return isOwner
	}
	return isOwner || board.HasMember(actor.UserID)
}

// CanAccessTask decides whether the identity may perform the action on the
// task. The task's Board with its Members must be preloaded.
//
//   - admins and the board owner may do anything
//   - the task creator may do anything, even after leaving the board
//   - board members may read and write, but not delete
func CanAccessTask(actor Identity, task *models.Task, action Action) bool {
	if actor.IsAdmin {
		return true
	}

	isCreator := task.CreatedByID != nil && *task.CreatedByID == actor.UserID
	isOwner := task.Board.OwnerID == actor.UserID

	if action == ActionDelete {
		return isCreator || isOwner
	}
	return isCreator || isOwner || task.Board.HasMember(actor.UserID)
}

// CanDeleteComment allows only the comment's author or an admin. Read access
// to comments is gated by board membership upstream, not per comment.
func CanDeleteComment(actor Identity, comment *models.Comment) bool {
	return actor.IsAdmin || comment.AuthorID == actor.UserID
}

// RemovedMembers returns the ids present in old but absent from new. The
// board-membership reconciliation clears assignee/reviewer for exactly these
// users; an empty result means no task is touched.
func RemovedMembers(old, new []uint64) []uint64 {
	kept := make(map[uint64]struct{}, len(new))
	for _, id := range new {
		kept[id] = struct{}{}
	}

	removed := make([]uint64, 0)
	seen := make(map[uint64]struct{}, len(old))
	for _, id := range old {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := kept[id]; !ok {
			removed = append(removed, id)
		}
	}
	return removed
}
