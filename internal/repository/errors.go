// Package repository implements persistence for users, verification tokens,
// programs and weekly plans. The sentinel errors below let the service layer
// tell missing rows and uniqueness violations apart from driver failures.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique key. The more
// specific errors below wrap it.
var ErrDuplicate = errors.New("duplicate record")

var (
	ErrDuplicateEmail    = dupError("email")
	ErrDuplicateUsername = dupError("username")
	ErrDuplicateToken    = dupError("token")
)

type duplicateError struct{ field string }

func (e *duplicateError) Error() string { return "duplicate " + e.field }
func (e *duplicateError) Unwrap() error { return ErrDuplicate }

func dupError(field string) error { return &duplicateError{field: field} }

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// mapDuplicate translates a MySQL duplicate-key error into one of the
// sentinels above, keyed by the violated index name. Other errors pass
// through unchanged.
func mapDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	switch {
	case strings.Contains(me.Message, "uq_users_email"):
		return ErrDuplicateEmail
	case strings.Contains(me.Message, "uq_users_username"):
		return ErrDuplicateUsername
	case strings.Contains(me.Message, "uq_email_verifications_token"):
		return ErrDuplicateToken
	}
	return ErrDuplicate
}
