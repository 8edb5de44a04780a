package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rowanfield/bramble/internal/model"
)

type PersonalEventStore struct {
	db *sql.DB
}

func NewPersonalEventStore(db *sql.DB) *PersonalEventStore {
	return &PersonalEventStore{db: db}
}

const personalEventCols = `id, user_id, title, description, start_date, end_date, color,
	is_public, reminder_minutes, created_at, updated_at`

func scanPersonalEvent(scanner interface{ Scan(...any) error }) (*model.PersonalEvent, error) {
	var e model.PersonalEvent
	var public int
	var reminder sql.NullInt64

	err := scanner.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.Color, &public, &reminder, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.Public = public != 0
	if reminder.Valid {
		m := int(reminder.Int64)
		e.ReminderMinutes = &m
	}
	return &e, nil
}

func (s *PersonalEventStore) Create(userID int64, title, description, startDate, endDate, color string, public bool, reminderMinutes *int) (*model.PersonalEvent, error) {
	var publicInt int
	if public {
		publicInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO personal_events (user_id, title, description, start_date, end_date, color, is_public, reminder_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, title, description, startDate, endDate, color, publicInt, nullIntMinutes(reminderMinutes),
	)
	if err != nil {
		return nil, fmt.Errorf("insert personal event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PersonalEventStore) GetByID(id int64) (*model.PersonalEvent, error) {
	row := s.db.QueryRow(`SELECT `+personalEventCols+` FROM personal_events WHERE id = ?`, id)
	e, err := scanPersonalEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get personal event: %w", err)
	}
	return e, nil
}

func (s *PersonalEventStore) ListByUser(userID int64) ([]model.PersonalEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+personalEventCols+` FROM personal_events WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list personal events: %w", err)
	}
	defer rows.Close()
	return collectPersonalEvents(rows)
}

// ListPublicByUsers returns shareable events owned by any of the given users,
// in a single query.
func (s *PersonalEventStore) ListPublicByUsers(userIDs []int64) ([]model.PersonalEvent, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT `+personalEventCols+` FROM personal_events
		 WHERE is_public = 1 AND user_id IN (`+placeholders+`) ORDER BY id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list public personal events: %w", err)
	}
	defer rows.Close()
	return collectPersonalEvents(rows)
}

func (s *PersonalEventStore) ListWithReminders() ([]model.PersonalEvent, error) {
	rows, err := s.db.Query(
		`SELECT ` + personalEventCols + ` FROM personal_events WHERE reminder_minutes IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("list personal events with reminders: %w", err)
	}
	defer rows.Close()
	return collectPersonalEvents(rows)
}

func collectPersonalEvents(rows *sql.Rows) ([]model.PersonalEvent, error) {
	var events []model.PersonalEvent
	for rows.Next() {
		e, err := scanPersonalEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan personal event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *PersonalEventStore) Update(id int64, title, description, startDate, endDate, color string, public bool, reminderMinutes *int) (*model.PersonalEvent, error) {
	var publicInt int
	if public {
		publicInt = 1
	}

	_, err := s.db.Exec(
		`UPDATE personal_events
		 SET title = ?, description = ?, start_date = ?, end_date = ?, color = ?,
		     is_public = ?, reminder_minutes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, description, startDate, endDate, color, publicInt, nullIntMinutes(reminderMinutes), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update personal event: %w", err)
	}
	return s.GetByID(id)
}

func (s *PersonalEventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM personal_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete personal event: %w", err)
	}
	return nil
}
