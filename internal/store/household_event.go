package store

import (
	"database/sql"
	"fmt"

	"github.com/rowanfield/bramble/internal/model"
)

type HouseholdEventStore struct {
	db *sql.DB
}

func NewHouseholdEventStore(db *sql.DB) *HouseholdEventStore {
	return &HouseholdEventStore{db: db}
}

const householdEventCols = `id, household_id, title, description, start_date, end_date, color,
	created_by, assigned_member_id, assigned_child_id, reminder_minutes, created_at, updated_at`

func scanHouseholdEvent(scanner interface{ Scan(...any) error }) (*model.HouseholdEvent, error) {
	var e model.HouseholdEvent
	var memberID, childID sql.NullInt64
	var reminder sql.NullInt64

	err := scanner.Scan(&e.ID, &e.HouseholdID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.Color, &e.CreatedBy, &memberID, &childID, &reminder, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if memberID.Valid {
		e.AssignedMemberID = &memberID.Int64
	}
	if childID.Valid {
		e.AssignedChildID = &childID.Int64
	}
	if reminder.Valid {
		m := int(reminder.Int64)
		e.ReminderMinutes = &m
	}
	return &e, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullIntMinutes(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func (s *HouseholdEventStore) Create(householdID int64, title, description, startDate, endDate, color string, createdBy int64, assignedMemberID, assignedChildID *int64, reminderMinutes *int) (*model.HouseholdEvent, error) {
	result, err := s.db.Exec(
		`INSERT INTO household_events (household_id, title, description, start_date, end_date, color,
		 created_by, assigned_member_id, assigned_child_id, reminder_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, title, description, startDate, endDate, color,
		createdBy, nullInt64(assignedMemberID), nullInt64(assignedChildID), nullIntMinutes(reminderMinutes),
	)
	if err != nil {
		return nil, fmt.Errorf("insert household event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdEventStore) GetByID(id int64) (*model.HouseholdEvent, error) {
	row := s.db.QueryRow(`SELECT `+householdEventCols+` FROM household_events WHERE id = ?`, id)
	e, err := scanHouseholdEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household event: %w", err)
	}
	return e, nil
}

// ListByHousehold returns all events for a household in insertion order.
// Date-based placement is a projection concern, not a query concern.
func (s *HouseholdEventStore) ListByHousehold(householdID int64) ([]model.HouseholdEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+householdEventCols+` FROM household_events WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list household events: %w", err)
	}
	defer rows.Close()

	var events []model.HouseholdEvent
	for rows.Next() {
		e, err := scanHouseholdEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListWithReminders returns events that have a reminder lead time configured.
// The caller filters by parsed start time.
func (s *HouseholdEventStore) ListWithReminders() ([]model.HouseholdEvent, error) {
	rows, err := s.db.Query(
		`SELECT ` + householdEventCols + ` FROM household_events WHERE reminder_minutes IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("list household events with reminders: %w", err)
	}
	defer rows.Close()

	var events []model.HouseholdEvent
	for rows.Next() {
		e, err := scanHouseholdEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *HouseholdEventStore) Update(id int64, title, description, startDate, endDate, color string, assignedMemberID, assignedChildID *int64, reminderMinutes *int) (*model.HouseholdEvent, error) {
	_, err := s.db.Exec(
		`UPDATE household_events
		 SET title = ?, description = ?, start_date = ?, end_date = ?, color = ?,
		     assigned_member_id = ?, assigned_child_id = ?, reminder_minutes = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, description, startDate, endDate, color,
		nullInt64(assignedMemberID), nullInt64(assignedChildID), nullIntMinutes(reminderMinutes), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household event: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdEventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM household_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household event: %w", err)
	}
	return nil
}
