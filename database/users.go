package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
)

// CreateUser inserts a new user with the given password hash.
// Returns ErrDuplicate if the username or the email is already taken.
func (s *Store) CreateUser(ctx context.Context, username, email string, passwordHash []byte) (user model.User, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return user, pkgerrors.Wrap(err, "new user id")
	}

	user = model.User{
		ID:        id.String(),
		Username:  username,
		Email:     email,
		CreatedAt: utcNow(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, passwordHash, user.CreatedAt, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return model.User{}, ErrDuplicate
	}
	if err != nil {
		return model.User{}, pkgerrors.Wrap(err, "insert user")
	}
	return user, nil
}

// UserExists reports whether any user has the given username or email.
func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM user WHERE email = ? OR username = ?)`,
		email, username,
	)
	return exists, pkgerrors.Wrap(err, "select user exists")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (user model.User, err error) {
	err = s.db.GetContext(ctx, &user, `
		SELECT id, username, email, created_at
		FROM user
		WHERE id = ?`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, pkgerrors.Wrap(err, "select user")
}

// GetCredentials returns the user registered with email together with its password hash.
func (s *Store) GetCredentials(ctx context.Context, email string) (user model.User, passwordHash []byte, err error) {
	var row struct {
		model.User
		PasswordHash []byte `db:"password_hash"`
	}
	err = s.db.GetContext(ctx, &row, `
		SELECT id, username, email, created_at, password_hash
		FROM user
		WHERE email = ?`,
		email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return user, nil, ErrNotFound
	}
	if err != nil {
		return user, nil, pkgerrors.Wrap(err, "select credentials")
	}
	return row.User, row.PasswordHash, nil
}
