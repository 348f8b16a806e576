package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/contactbook/contactbook-go/internal/model"
)

// ContactRepository handles contact persistence operations. It holds the
// *sql.DB itself, not a DBTX, because Update and Delete open their own
// transactions through WithTx.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, name, first_surname, second_surname, email, phone`

// likeEscaper escapes LIKE wildcards; '!' is used as the escape character
// because backslash is itself an escape inside MySQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(fragment string) string {
	return "%" + likeEscaper.Replace(fragment) + "%"
}

// Create inserts a new contact and sets the generated ID on it.
func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	query := `INSERT INTO contacts (name, first_surname, second_surname, email, phone) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, c.Name, c.FirstSurname, c.SecondSurname, c.Email, c.Phone)
	if err != nil {
		if isDuplicateEntryError(err, contactsEmailKey) {
			return ErrDuplicateEmail
		}
		return storeErr("insert contact", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeErr("insert contact", err)
	}

	c.ID = id
	return nil
}

// List returns every contact ordered by id. The slice is empty, never nil, when there are none.
func (r *ContactRepository) List(ctx context.Context) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY id`
	return r.queryMany(ctx, "list contacts", query)
}

// SearchByEmail returns contacts whose email contains fragment, ordered by id.
func (r *ContactRepository) SearchByEmail(ctx context.Context, fragment string) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE email LIKE ? ESCAPE '!' ORDER BY id`
	return r.queryMany(ctx, "search contacts", query, containsPattern(fragment))
}

// GetByEmail retrieves a contact by exact email.
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	return getContact(ctx, r.db, model.ContactRef{Email: email})
}

// FirstByEmailFragment retrieves the lowest-id contact whose email contains fragment.
func (r *ContactRepository) FirstByEmailFragment(ctx context.Context, fragment string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE email LIKE ? ESCAPE '!' ORDER BY id LIMIT 1`
	return scanContact(r.db.QueryRowContext(ctx, query, containsPattern(fragment)), "get contact by email fragment")
}

// Get retrieves a contact by id or exact email.
func (r *ContactRepository) Get(ctx context.Context, ref model.ContactRef) (*model.Contact, error) {
	return getContact(ctx, r.db, ref)
}

// Update loads the referenced contact, lets mutate change it and writes it
// back, all in one transaction. An error from mutate aborts the update and is
// returned unchanged.
func (r *ContactRepository) Update(ctx context.Context, ref model.ContactRef, mutate func(*model.Contact) error) (*model.Contact, error) {
	var updated *model.Contact

	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		c, err := getContact(ctx, tx, ref)
		if err != nil {
			return err
		}

		id := c.ID
		if err := mutate(c); err != nil {
			return err
		}
		c.ID = id

		query := `UPDATE contacts
			SET name = ?, first_surname = ?, second_surname = ?, email = ?, phone = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, c.Name, c.FirstSurname, c.SecondSurname, c.Email, c.Phone, c.ID); err != nil {
			if isDuplicateEntryError(err, contactsEmailKey) {
				return ErrDuplicateEmail
			}
			return storeErr("update contact", err)
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the referenced contact and returns the value it held
// immediately before deletion.
func (r *ContactRepository) Delete(ctx context.Context, ref model.ContactRef) (*model.Contact, error) {
	var deleted *model.Contact

	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		c, err := getContact(ctx, tx, ref)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, c.ID)
		if err != nil {
			return storeErr("delete contact", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return storeErr("delete contact", err)
		}
		if rowsAffected == 0 {
			return ErrContactNotFound
		}

		deleted = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func getContact(ctx context.Context, q DBTX, ref model.ContactRef) (*model.Contact, error) {
	if ref.Email != "" {
		query := `SELECT ` + contactColumns + ` FROM contacts WHERE email = ?`
		return scanContact(q.QueryRowContext(ctx, query, ref.Email), "get contact by email")
	}
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`
	return scanContact(q.QueryRowContext(ctx, query, ref.ID), "get contact by id")
}

func scanContact(row *sql.Row, op string) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.Name, &c.FirstSurname, &c.SecondSurname, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, storeErr(op, err)
	}
	return &c, nil
}

func (r *ContactRepository) queryMany(ctx context.Context, op, query string, args ...any) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	contacts := make([]model.Contact, 0)
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.FirstSurname, &c.SecondSurname, &c.Email, &c.Phone); err != nil {
			return nil, storeErr(op, err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}

	return contacts, nil
}
