package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrContactNotFound   = errors.New("contact not found")
	ErrDuplicateEmail    = errors.New("email already exists")

	// ErrUnavailable marks connection-level failures a caller may retry.
	ErrUnavailable = errors.New("store unavailable")
)

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// storeErr wraps a driver error with the failing operation and tags it with
// ErrUnavailable when the failure is transient.
func storeErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// uniqueKey names one unique constraint in both dialects: the MySQL index
// and the SQLite table.column that appear in their violation messages.
type uniqueKey struct {
	index  string
	column string
}

var (
	accountsUsernameKey = uniqueKey{index: "uq_accounts_username", column: "accounts.username"}
	contactsEmailKey    = uniqueKey{index: "uq_contacts_email", column: "contacts.email"}
)

// isDuplicateEntryError reports a violation of key on MySQL or SQLite.
// Violations of other unique constraints are not matched.
func isDuplicateEntryError(err error, key uniqueKey) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// MySQL 8 reports the key as 'table.index', older servers as 'index'.
		return myErr.Number == mysqlDuplicateEntry &&
			(strings.Contains(myErr.Message, "'"+key.index+"'") || strings.Contains(myErr.Message, "."+key.index+"'"))
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+key.column)
}

func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "sql: database is closed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
