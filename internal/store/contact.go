package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/driveline-motors/apiserver/types"
)

// ContactRepository handles persistence for contact messages.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	var userID sql.NullInt64
	if contact.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*contact.UserID), Valid: true}
	}

	const query = `
		INSERT INTO contacts (name, email, subject, message, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		contact.Name,
		contact.Email,
		contact.Subject,
		contact.Message,
		contact.Status,
		userID,
		contact.CreatedAt,
		contact.UpdatedAt,
	).Scan(&contact.ID); err != nil {
		return types.Contact{}, err
	}
	return contact, nil
}

// List returns all contact messages, newest first.
func (r *ContactRepository) List(ctx context.Context) ([]types.Contact, error) {
	const query = `
		SELECT id, name, email, subject, message, status, user_id, created_at, updated_at
		FROM contacts
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []types.Contact
	for rows.Next() {
		var contact types.Contact
		var userID sql.NullInt64
		if err := rows.Scan(
			&contact.ID,
			&contact.Name,
			&contact.Email,
			&contact.Subject,
			&contact.Message,
			&contact.Status,
			&userID,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if userID.Valid {
			id := int(userID.Int64)
			contact.UserID = &id
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

// UpdateStatus overwrites the status of an existing contact message.
func (r *ContactRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const query = `
		UPDATE contacts
		SET status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
