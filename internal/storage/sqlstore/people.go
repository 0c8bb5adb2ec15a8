package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billsplit/internal/models"
)

const personColumns = "id, user_id, name, color, created_at"

// CreatePerson inserts a person. When no colour is given the next palette
// colour is picked from the number of people the user already has.
func (s *Store) CreatePerson(ctx context.Context, person *models.Person) error {
	person.Name = strings.TrimSpace(person.Name)
	if person.Name == "" {
		return models.NewValidationError("name", "must not be empty")
	}
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	if person.CreatedAt.IsZero() {
		person.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if person.Color == "" {
			var count int
			err := s.queryRow(ctx, tx, "SELECT COUNT(*) FROM people WHERE user_id = ?", person.UserID).Scan(&count)
			if err != nil {
				return fmt.Errorf("failed to count people: %w", err)
			}
			person.Color = models.NextPersonColor(count)
		}

		_, err := s.exec(ctx, tx,
			"INSERT INTO people ("+personColumns+") VALUES (?, ?, ?, ?, ?)",
			person.ID, person.UserID, person.Name, person.Color, toMillis(person.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
		return nil
	})
}

// GetPerson retrieves a person by ID.
func (s *Store) GetPerson(ctx context.Context, personID string) (*models.Person, error) {
	row := s.queryRow(ctx, s.db, "SELECT "+personColumns+" FROM people WHERE id = ?", personID)
	person, err := scanPerson(row)
	if err != nil {
		return nil, notFound(err, "person", personID)
	}
	return person, nil
}

// ListPeople returns the user's people in creation order.
func (s *Store) ListPeople(ctx context.Context, userID string) ([]models.Person, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+personColumns+" FROM people WHERE user_id = ? ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	people := make([]models.Person, 0)
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, *person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}
	return people, nil
}

// DeletePerson removes a person. Their assignments go with them by cascade.
func (s *Store) DeletePerson(ctx context.Context, personID string) error {
	res, err := s.exec(ctx, s.db, "DELETE FROM people WHERE id = ?", personID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return requireAffected(res, "person", personID)
}

func scanPerson(row scanner) (*models.Person, error) {
	var (
		person    models.Person
		createdAt int64
	)
	if err := row.Scan(&person.ID, &person.UserID, &person.Name, &person.Color, &createdAt); err != nil {
		return nil, err
	}
	person.CreatedAt = fromMillis(createdAt)
	return &person, nil
}
