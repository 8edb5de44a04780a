package store

import (
	"database/sql"
	"fmt"

	"github.com/rowanfield/bramble/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, household_id, title, description, status, position,
	assigned_member_id, assigned_child_id, created_by, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var memberID, childID sql.NullInt64

	err := scanner.Scan(&t.ID, &t.HouseholdID, &t.Title, &t.Description, &t.Status, &t.Position,
		&memberID, &childID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if memberID.Valid {
		t.AssignedMemberID = &memberID.Int64
	}
	if childID.Valid {
		t.AssignedChildID = &childID.Int64
	}
	return &t, nil
}

// Create appends the task at the bottom of its status column.
func (s *TaskStore) Create(householdID int64, title, description string, status model.TaskStatus, assignedMemberID, assignedChildID *int64, createdBy int64) (*model.Task, error) {
	var maxPos int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position), -1) FROM tasks WHERE household_id = ? AND status = ?`,
		householdID, status,
	).Scan(&maxPos)
	if err != nil {
		return nil, fmt.Errorf("query max position: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (household_id, title, description, status, position, assigned_member_id, assigned_child_id, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, title, description, status, maxPos+1,
		nullInt64(assignedMemberID), nullInt64(assignedChildID), createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByHousehold(householdID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY status, position ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, title, description string, assignedMemberID, assignedChildID *int64) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, assigned_member_id = ?, assigned_child_id = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, nullInt64(assignedMemberID), nullInt64(assignedChildID), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// Move places the task in a status column at the given position, shifting
// the positions of the other tasks in both affected columns.
func (s *TaskStore) Move(id int64, status model.TaskStatus, position int) (*model.Task, error) {
	task, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task not found")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Close the gap in the old column.
	if _, err := tx.Exec(
		`UPDATE tasks SET position = position - 1
		 WHERE household_id = ? AND status = ? AND position > ?`,
		task.HouseholdID, task.Status, task.Position,
	); err != nil {
		return nil, fmt.Errorf("shift old column: %w", err)
	}

	// Open a gap in the new column.
	if _, err := tx.Exec(
		`UPDATE tasks SET position = position + 1
		 WHERE household_id = ? AND status = ? AND position >= ? AND id != ?`,
		task.HouseholdID, status, position, id,
	); err != nil {
		return nil, fmt.Errorf("shift new column: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE tasks SET status = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, position, id,
	); err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
