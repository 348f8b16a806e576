package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/contactbook/contactbook-go/internal/model"
)

// AccountRepository handles account persistence operations.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, username, password_hash, token_hash, token_issued_at`

// Create inserts a new account without a token and sets the generated ID.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `INSERT INTO accounts (username, password_hash) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, account.Username, account.PasswordHash)
	if err != nil {
		if isDuplicateEntryError(err, accountsUsernameKey) {
			return ErrDuplicateUsername
		}
		return storeErr("insert account", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeErr("insert account", err)
	}

	account.ID = id
	return nil
}

// GetByUsername retrieves an account by its username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = ?`
	return r.getOne(ctx, "get account by username", query, username)
}

// GetByTokenHash retrieves the account whose current token has the given digest.
func (r *AccountRepository) GetByTokenHash(ctx context.Context, digest string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE token_hash = ?`
	return r.getOne(ctx, "get account by token", query, digest)
}

// RotateToken replaces the account's current token digest in one statement,
// which invalidates whatever token was issued before.
func (r *AccountRepository) RotateToken(ctx context.Context, id int64, digest string, issuedAt int64) error {
	query := `UPDATE accounts SET token_hash = ?, token_issued_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, digest, issuedAt, id)
	if err != nil {
		return storeErr("rotate token", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("rotate token", err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) getOne(ctx context.Context, op, query string, arg any) (*model.Account, error) {
	var (
		account   model.Account
		tokenHash sql.NullString
		issuedAt  sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Username, &account.PasswordHash, &tokenHash, &issuedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, storeErr(op, err)
	}

	account.TokenHash = tokenHash.String
	account.TokenIssuedAt = issuedAt.Int64
	return &account, nil
}
