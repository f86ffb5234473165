package account

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByPhone looks up a user by normalized phone. Returns ErrUserNotFound.
	GetByPhone(ctx context.Context, phone string) (*User, error)
	// Create inserts a new user. Returns ErrPhoneTaken when the normalized
	// phone is already registered.
	Create(ctx context.Context, u *User) (*User, error)
}
