package model

import "time"

type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "todo"
	TaskStatusDoing TaskStatus = "doing"
	TaskStatusDone  TaskStatus = "done"
)

// Task is a kanban board entry. Position orders tasks within their status
// column.
type Task struct {
	ID               int64      `json:"id"`
	HouseholdID      int64      `json:"household_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           TaskStatus `json:"status"`
	Position         int        `json:"position"`
	AssignedMemberID *int64     `json:"assigned_member_id"`
	AssignedChildID  *int64     `json:"assigned_child_id"`
	CreatedBy        int64      `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
