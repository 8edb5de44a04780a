package store

import (
	"database/sql"
	"fmt"

	"github.com/rowanfield/bramble/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalCols = `id, household_id, title, description, target, progress, completed, created_by, created_at, updated_at`

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	var completed int
	err := scanner.Scan(&g.ID, &g.HouseholdID, &g.Title, &g.Description, &g.Target, &g.Progress,
		&completed, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Completed = completed != 0
	return &g, nil
}

func (s *GoalStore) Create(householdID int64, title, description string, target int, createdBy int64) (*model.Goal, error) {
	result, err := s.db.Exec(
		`INSERT INTO goals (household_id, title, description, target, created_by) VALUES (?, ?, ?, ?, ?)`,
		householdID, title, description, target, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) GetByID(id int64) (*model.Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListByHousehold(householdID int64) ([]model.Goal, error) {
	rows, err := s.db.Query(
		`SELECT `+goalCols+` FROM goals WHERE household_id = ? ORDER BY completed ASC, created_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) Update(id int64, title, description string, target int) (*model.Goal, error) {
	_, err := s.db.Exec(
		`UPDATE goals SET title = ?, description = ?, target = ?,
		 completed = CASE WHEN progress >= ? THEN 1 ELSE 0 END,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, target, target, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.GetByID(id)
}

// AddProgress increments progress by delta (clamped at zero) and marks the
// goal completed when progress reaches the target.
func (s *GoalStore) AddProgress(id int64, delta int) (*model.Goal, error) {
	_, err := s.db.Exec(
		`UPDATE goals SET progress = MAX(progress + ?, 0),
		 completed = CASE WHEN MAX(progress + ?, 0) >= target THEN 1 ELSE 0 END,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta, delta, id,
	)
	if err != nil {
		return nil, fmt.Errorf("add goal progress: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
