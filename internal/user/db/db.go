package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"gba-rental/internal/models"
)

var (
	// ErrUserNotFound is returned when a user id or email does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an insert collides with an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

type DB struct {
	Bun *bun.DB
}

// ---------------- USERS ----------------

// CreateUser → insert new user; the unique index on email is the
// authority on duplicates.
func (d *DB) CreateUser(user models.User) error {
	_, err := d.Bun.NewInsert().Model(&user).Exec(context.Background())
	return err
}

// GetUserByID → fetch one user by id
func (d *DB) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("user_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail → fetch one user by email (login path)
func (d *DB) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("LOWER(email) = LOWER(?)", email).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers → every user, newest first (admin)
func (d *DB) ListUsers() ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser → replace mutable profile fields (admin)
func (d *DB) UpdateUser(user models.User) error {
	res, err := d.Bun.NewUpdate().
		Model(&user).
		Column("name", "email", "role").
		Where("user_id = ?", user.UserID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteUser → remove one user (admin)
func (d *DB) DeleteUser(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("user_id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CountUsers → number of registered clients
func (d *DB) CountUsers() (int, error) {
	return d.Bun.NewSelect().Model((*models.User)(nil)).Count(context.Background())
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
