package httpx

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/model"
)

var (
	errDuplicateUser      = ValidationFailed("User with this email or username already exists")
	errInvalidCredentials = Unauthenticated("Invalid credentials")
)

// Credentials registers users and checks their passwords.
type Credentials struct {
	store *database.Store
	cost  int
}

func NewCredentials(store *database.Store) *Credentials {
	return &Credentials{store, bcrypt.DefaultCost}
}

// Register creates a user with a salted hash of password.
// Taken usernames or emails are reported as a validation failure.
func (cs *Credentials) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	exists, err := cs.store.UserExists(ctx, req.Username, req.Email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, errDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword(hashInput(req.Password), cs.cost)
	if err != nil {
		return model.User{}, err
	}

	user, err := cs.store.CreateUser(ctx, req.Username, req.Email, hash)
	if errors.Is(err, database.ErrDuplicate) {
		// lost a race against a concurrent registration
		return model.User{}, errDuplicateUser
	}
	return user, err
}

// ValidateUser returns the user registered with email if password matches.
func (cs *Credentials) ValidateUser(ctx context.Context, email, password string) (model.User, error) {
	user, hash, err := cs.store.GetCredentials(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return model.User{}, errInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(hash, hashInput(password))
	if err != nil {
		return model.User{}, errInvalidCredentials
	}
	return user, nil
}

// bcrypt only reads the first 72 bytes of a password and refuses longer input,
// so both hashing and checking look at that prefix alone.
const maxPasswordBytes = 72

func hashInput(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
