// Package account provisions customer accounts keyed by phone number and
// issues access tokens for them.
package account

import (
	"context"
	"errors"
	"strings"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
	"github.com/hsdarestani/vaadehrep/pkg/phone"
)

// Claims is the authenticated identity carried by an access token.
type Claims struct {
	UserID  int64
	Phone   string
	IsStaff bool
}

// TokenService signs and verifies access tokens.
type TokenService interface {
	GenerateToken(u *domaccount.User) (string, error)
	ParseToken(token string) (*Claims, error)
}

// PasswordService hashes and compares staff passwords; guest accounts never
// carry one.
type PasswordService interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type Service struct {
	users     domaccount.Repository
	tokens    TokenService
	passwords PasswordService
}

func NewService(users domaccount.Repository, tokens TokenService, passwords PasswordService) *Service {
	return &Service{users: users, tokens: tokens, passwords: passwords}
}

// ResolveByID loads an existing account.
func (s *Service) ResolveByID(ctx context.Context, id int64) (*domaccount.User, error) {
	return s.users.GetByID(ctx, id)
}

// ResolveOrCreateGuest returns the account registered under the given phone,
// creating a guest account on first contact. The operation is idempotent per
// normalized phone: a concurrent create losing the unique-phone race falls
// back to fetching the winner's row.
func (s *Service) ResolveOrCreateGuest(ctx context.Context, rawPhone, fullName string) (*domaccount.User, error) {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsMobile(normalized) {
		return nil, domaccount.ErrPhoneRequired
	}

	u, err := s.users.GetByPhone(ctx, normalized)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domaccount.ErrUserNotFound) {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domaccount.User{
		Phone:    normalized,
		FullName: strings.TrimSpace(fullName),
		IsActive: true,
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, domaccount.ErrPhoneTaken) {
		return s.users.GetByPhone(ctx, normalized)
	}
	return nil, err
}

// ProvisionStaff creates a password-bearing staff account. The phone must be
// free: promoting an existing account is an explicit operator action, not a
// side effect of provisioning.
func (s *Service) ProvisionStaff(ctx context.Context, rawPhone, fullName, password string) (*domaccount.User, error) {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsMobile(normalized) {
		return nil, domaccount.ErrPhoneRequired
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, &domaccount.User{
		Phone:        normalized,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
	})
}

// IssueCredentials signs an access token for the user.
func (s *Service) IssueCredentials(u *domaccount.User) (string, error) {
	return s.tokens.GenerateToken(u)
}

// Login authenticates a password-bearing account (vendor staff, operators)
// and issues a token. Guest accounts have no password and cannot log in.
func (s *Service) Login(ctx context.Context, rawPhone, password string) (*domaccount.User, string, error) {
	u, err := s.users.GetByPhone(ctx, phone.Normalize(rawPhone))
	if err != nil {
		if errors.Is(err, domaccount.ErrUserNotFound) {
			return nil, "", domaccount.ErrUnauthorized
		}
		return nil, "", err
	}
	if !u.IsActive || u.IsGuest() {
		return nil, "", domaccount.ErrUnauthorized
	}
	if err := s.passwords.Compare(u.PasswordHash, password); err != nil {
		return nil, "", domaccount.ErrUnauthorized
	}
	token, err := s.tokens.GenerateToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate validates a bearer token and loads the live account. Tokens
// for deactivated accounts are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*domaccount.User, *Claims, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, nil, domaccount.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domaccount.ErrUserNotFound) {
			return nil, nil, domaccount.ErrUnauthorized
		}
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, domaccount.ErrUnauthorized
	}
	return u, claims, nil
}
