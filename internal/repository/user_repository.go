package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
	"github.com/Mr-Fulani/class-booking-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email or username already exists")

const userColumns = "id, username, email, password_hash, role, is_active, last_login_at, created_at, updated_at"

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, wrapStoreErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return uint64(id), nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u     model.User
		login sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &login, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if login.Valid {
		t := login.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered by username, for the admin panel.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY username ASC")
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var (
			u     model.User
			login sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &login, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, wrapStoreErr(err)
		}
		if login.Valid {
			t := login.Time
			u.LastLoginAt = &t
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return out, nil
}

// SetRole updates a user's role. Returns sql.ErrNoRows when the user
// does not exist.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return wrapStoreErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return wrapStoreErr(err)
}

// TouchLastLogin records a successful login time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login_at=? WHERE id=?", at.UTC(), id)
	return wrapStoreErr(err)
}

// Delete removes a user together with their bookings, payments and
// refresh tokens. Audit entries are retained with user_id intact for
// the security trail.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var exists uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", id).Scan(&exists); err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM refresh_tokens WHERE user_id=?",
		"DELETE FROM bookings WHERE user_id=?",
		"DELETE FROM payments WHERE user_id=?",
		"DELETE FROM users WHERE id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return wrapStoreErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapStoreErr(err)
	}
	committed = true
	return nil
}
