// Package store implements the Postgres-backed repositories.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"finwise/internal/apperr"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Constraint names declared in migrations/00001_init.sql.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
	constraintUserDay  = "questionnaires_user_day_key"
)

// classify turns a driver error into an apperr kind where one applies and
// wraps everything else with the failing operation.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsername:
			return apperr.Wrap(apperr.ErrConflict, apperr.CodeDuplicateUsername, "User with this username already exists.", err)
		case constraintEmail:
			return apperr.Wrap(apperr.ErrConflict, apperr.CodeDuplicateEmail, "User with this email already exists.", err)
		case constraintUserDay:
			return apperr.Wrap(apperr.ErrConflict, apperr.CodeAlreadySubmittedToday, "You have already submitted a questionnaire today.", err)
		default:
			return apperr.Wrap(apperr.ErrConflict, "duplicate", "duplicate entry", err)
		}
	}

	// Only users are referenced; the owner vanished mid-request.
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return notFound(apperr.CodeUserNotFound, userNotFoundMsg, err)
	}

	if isUnavailable(err) {
		return apperr.Unavailable(fmt.Errorf("store: %s: %w", op, err))
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func notFound(code, message string, err error) error {
	return apperr.Wrap(apperr.ErrNotFound, code, message, err)
}

func mustAffect(op string, res sql.Result, code, message string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return notFound(code, message, nil)
	}
	return nil
}
