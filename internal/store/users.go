package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

const userColumns = `id, username, email, password_hash, role, blocked, first_name, last_name, gender,
	receive_notifications, profile_photo, last_login, last_ip, created_at, updated_at`

const userNotFoundMsg = "User not found"

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u and fills in the generated columns.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (username, email, password_hash, role, first_name, last_name, gender, receive_notifications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.Gender, u.ReceiveNotifications,
	).StructScan(u)
	return classify("create user", err)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(apperr.CodeUserNotFound, userNotFoundMsg, err)
		}
		return nil, classify("find user by id", err)
	}
	return &u, nil
}

// FindByUsernameOrEmail prefers an email match over a username match.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users
		WHERE email = $1 OR username = $2
		ORDER BY (email = $1) DESC
		LIMIT 1`, strings.ToLower(identifier), identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(apperr.CodeUserNotFound, userNotFoundMsg, err)
		}
		return nil, classify("find user by identifier", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of p and returns the updated user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, p models.ProfileUpdate) (*models.User, error) {
	if p.Empty() {
		return r.FindByID(ctx, id)
	}

	setClauses := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, column+"=$"+strconv.Itoa(len(args)))
	}
	if p.FirstName != nil {
		add("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		add("last_name", *p.LastName)
	}
	if p.Gender != nil {
		add("gender", *p.Gender)
	}
	if p.ReceiveNotifications != nil {
		add("receive_notifications", *p.ReceiveNotifications)
	}
	setClauses = append(setClauses, "updated_at=NOW()")
	args = append(args, id)

	query := "UPDATE users SET " + strings.Join(setClauses, ", ") + " WHERE id=$" + strconv.Itoa(len(args)) + " RETURNING " + userColumns
	var u models.User
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(apperr.CodeUserNotFound, userNotFoundMsg, err)
		}
		return nil, classify("update profile", err)
	}
	return &u, nil
}

func (r *UserRepository) SetPhoto(ctx context.Context, id int64, ref string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET profile_photo=$1, updated_at=NOW() WHERE id=$2`, ref, id)
	if err != nil {
		return classify("set photo", err)
	}
	return mustAffect("set photo", res, apperr.CodeUserNotFound, userNotFoundMsg)
}

// SetBlocked is idempotent: setting the current value again succeeds.
func (r *UserRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET blocked=$1, updated_at=NOW() WHERE id=$2`, blocked, id)
	if err != nil {
		return classify("set blocked", err)
	}
	return mustAffect("set blocked", res, apperr.CodeUserNotFound, userNotFoundMsg)
}

// ToggleBlocked flips the flag atomically and returns the new value.
func (r *UserRepository) ToggleBlocked(ctx context.Context, id int64) (bool, error) {
	var blocked bool
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET blocked = NOT blocked, updated_at=NOW() WHERE id=$1 RETURNING blocked`, id).Scan(&blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, notFound(apperr.CodeUserNotFound, userNotFoundMsg, err)
		}
		return false, classify("toggle blocked", err)
	}
	return blocked, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id int64, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`, role, id)
	if err != nil {
		return classify("set role", err)
	}
	return mustAffect("set role", res, apperr.CodeUserNotFound, userNotFoundMsg)
}

func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id)
	if err != nil {
		return classify("set password", err)
	}
	return mustAffect("set password", res, apperr.CodeUserNotFound, userNotFoundMsg)
}

// Delete removes the user; submissions and activity cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return classify("delete user", err)
	}
	return mustAffect("delete user", res, apperr.CodeUserNotFound, userNotFoundMsg)
}

// RecordActivity appends one entry to the user's activity log.
func (r *UserRepository) RecordActivity(ctx context.Context, id int64, action string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_activity (user_id, action, created_at) VALUES ($1, $2, $3)`, id, action, at)
	return classify("record activity", err)
}

// RecordLogin stores login metadata and appends a Login activity in one transaction.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("begin login tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE users SET last_login=$1, last_ip=$2 WHERE id=$3`, at, ip, id)
	if err != nil {
		return classify("record login", err)
	}
	if err := mustAffect("record login", res, apperr.CodeUserNotFound, userNotFoundMsg); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO user_activity (user_id, action, created_at) VALUES ($1, $2, $3)`, id, models.ActionLogin, at); err != nil {
		return classify("record login activity", err)
	}
	return classify("commit login tx", tx.Commit())
}

func (r *UserRepository) ListActivity(ctx context.Context, id int64) ([]models.Activity, error) {
	out := []models.Activity{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, user_id, action, created_at FROM user_activity
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT 100`, id)
	if err != nil {
		return nil, classify("list activity", err)
	}
	return out, nil
}
