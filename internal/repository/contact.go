package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"phonebook-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactRepository handles database operations for contacts
type ContactRepository struct {
	db *pgxpool.Pool
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	phones, err := json.Marshal(contact.PhoneNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode phone numbers: %w", err)
	}

	query := `
		INSERT INTO contacts (id, owner_id, first_name, last_name, address, phone_numbers, picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		contact.ID, contact.OwnerID, contact.FirstName, contact.LastName,
		contact.Address, phones, contact.Picture, contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetByID retrieves a contact by ID regardless of owner.
// Callers are responsible for the ownership check.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	query := `
		SELECT id, owner_id, first_name, last_name, address, phone_numbers, picture, created_at, updated_at
		FROM contacts
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// ListByOwner retrieves all contacts owned by a user, sorted by first name
func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Contact, error) {
	query := `
		SELECT id, owner_id, first_name, last_name, address, phone_numbers, picture, created_at, updated_at
		FROM contacts
		WHERE owner_id = $1
		ORDER BY first_name
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Search retrieves the owner's contacts whose first or last name contains
// the query substring, matched case-insensitively
func (r *ContactRepository) Search(ctx context.Context, ownerID, q string) ([]*models.Contact, error) {
	query := `
		SELECT id, owner_id, first_name, last_name, address, phone_numbers, picture, created_at, updated_at
		FROM contacts
		WHERE owner_id = $1
		  AND (first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%')
		ORDER BY first_name
	`
	rows, err := r.db.Query(ctx, query, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Update persists the mutable fields of a contact in a single write
func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	phones, err := json.Marshal(contact.PhoneNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode phone numbers: %w", err)
	}

	query := `
		UPDATE contacts
		SET first_name = $1, last_name = $2, address = $3, phone_numbers = $4, picture = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.Exec(ctx, query,
		contact.FirstName, contact.LastName, contact.Address, phones,
		contact.Picture, contact.UpdatedAt, contact.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a contact by ID
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ContactRepository) scanOne(row pgx.Row) (*models.Contact, error) {
	var contact models.Contact
	var phones []byte
	err := row.Scan(
		&contact.ID, &contact.OwnerID, &contact.FirstName, &contact.LastName,
		&contact.Address, &phones, &contact.Picture, &contact.CreatedAt, &contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if err := json.Unmarshal(phones, &contact.PhoneNumbers); err != nil {
		return nil, fmt.Errorf("failed to decode phone numbers: %w", err)
	}
	return &contact, nil
}

func (r *ContactRepository) scanAll(rows pgx.Rows) ([]*models.Contact, error) {
	var contacts []*models.Contact
	for rows.Next() {
		var contact models.Contact
		var phones []byte
		err := rows.Scan(
			&contact.ID, &contact.OwnerID, &contact.FirstName, &contact.LastName,
			&contact.Address, &phones, &contact.Picture, &contact.CreatedAt, &contact.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		if err := json.Unmarshal(phones, &contact.PhoneNumbers); err != nil {
			return nil, fmt.Errorf("failed to decode phone numbers: %w", err)
		}
		contacts = append(contacts, &contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}
