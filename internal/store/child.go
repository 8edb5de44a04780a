package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rowanfield/bramble/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

const childCols = `id, household_id, name, avatar_url, age, color, pin IS NOT NULL, created_at, updated_at`

func scanChild(scanner interface{ Scan(...any) error }) (*model.ChildProfile, error) {
	var c model.ChildProfile
	err := scanner.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.AvatarURL, &c.Age, &c.Color, &c.HasPIN, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChildStore) Create(householdID int64, name, avatarURL string, age int, color string) (*model.ChildProfile, error) {
	result, err := s.db.Exec(
		`INSERT INTO child_profiles (household_id, name, avatar_url, age, color) VALUES (?, ?, ?, ?, ?)`,
		householdID, name, avatarURL, age, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) GetByID(id int64) (*model.ChildProfile, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM child_profiles WHERE id = ?`, id)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child profile: %w", err)
	}
	return c, nil
}

func (s *ChildStore) ListByHousehold(householdID int64) ([]model.ChildProfile, error) {
	rows, err := s.db.Query(
		`SELECT `+childCols+` FROM child_profiles WHERE household_id = ? ORDER BY name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list child profiles: %w", err)
	}
	defer rows.Close()

	var children []model.ChildProfile
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child profile: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

// ListByIDs returns child profiles for the given ids in a single query.
func (s *ChildStore) ListByIDs(ids []int64) ([]model.ChildProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(`SELECT `+childCols+` FROM child_profiles WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("list child profiles by ids: %w", err)
	}
	defer rows.Close()

	var children []model.ChildProfile
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child profile: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

func (s *ChildStore) Update(id int64, name, avatarURL string, age int, color string) (*model.ChildProfile, error) {
	_, err := s.db.Exec(
		`UPDATE child_profiles SET name = ?, avatar_url = ?, age = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, avatarURL, age, color, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update child profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM child_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete child profile: %w", err)
	}
	return nil
}

func (s *ChildStore) SetPIN(id int64, hashedPIN string) error {
	_, err := s.db.Exec(`UPDATE child_profiles SET pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *ChildStore) ClearPIN(id int64) error {
	_, err := s.db.Exec(`UPDATE child_profiles SET pin = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

func (s *ChildStore) GetPINHash(id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM child_profiles WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("child profile not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}
