package dto

import (
	"github.com/PaFunzFr/KanMind-backend/internal/models"
)

// BoardDTO represents a board in list responses, with the aggregate counts
// clients use to render board tiles.
type BoardDTO struct {
	ID                 uint64 `json:"id"`
	Title              string `json:"title"`
	OwnerID            uint64 `json:"owner_id"`
	MemberCount        int    `json:"member_count"`
	TicketCount        int    `json:"ticket_count"`
	TasksToDoCount     int    `json:"tasks_to_do_count"`
	TasksHighPrioCount int    `json:"tasks_high_prio_count"`
}

// BoardDetailDTO represents a single board with nested members and tasks
type BoardDetailDTO struct {
	ID      uint64    `json:"id"`
	Title   string    `json:"title"`
	OwnerID uint64    `json:"owner_id"`
	Members []UserDTO `json:"members"`
	Tasks   []TaskDTO `json:"tasks"`
}

// ToBoardDTO converts a Board model (Members and Tasks preloaded) to BoardDTO
func ToBoardDTO(board models.Board) BoardDTO {
	dto := BoardDTO{
		ID:          board.ID,
		Title:       board.Title,
		OwnerID:     board.OwnerID,
		MemberCount: len(board.Members),
		TicketCount: len(board.Tasks),
	}

	for _, task := range board.Tasks {
		if task.Status == models.TaskStatusTodo {
			dto.TasksToDoCount++
		}
		if task.Priority == models.TaskPriorityHigh {
			dto.TasksHighPrioCount++
		}
	}

	return dto
}

// ToBoardDetailDTO converts a Board model with preloaded relations to BoardDetailDTO
func ToBoardDetailDTO(board models.Board) BoardDetailDTO {
	members := make([]UserDTO, len(board.Members))
	for i, member := range board.Members {
		members[i] = ToUserDTO(member.User)
	}

	tasks := make([]TaskDTO, len(board.Tasks))
	for i, task := range board.Tasks {
		tasks[i] = ToTaskDTO(task)
	}

	return BoardDetailDTO{
		ID:      board.ID,
		Title:   board.Title,
		OwnerID: board.OwnerID,
		Members: members,
		Tasks:   tasks,
	}
}
