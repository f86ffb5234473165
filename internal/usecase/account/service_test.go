package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
)

type mockUserRepository struct {
	byPhone map[string]*domaccount.User
	byID    map[int64]*domaccount.User
	nextID  int64

	createCalls int
	// raceWinner, when set, makes Create fail with ErrPhoneTaken after
	// registering the winner's row, simulating a lost unique-index race.
	raceWinner *domaccount.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byPhone: make(map[string]*domaccount.User),
		byID:    make(map[int64]*domaccount.User),
		nextID:  1,
	}
}

func (m *mockUserRepository) add(u *domaccount.User) *domaccount.User {
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	}
	m.byPhone[u.Phone] = u
	m.byID[u.ID] = u
	return u
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domaccount.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domaccount.ErrUserNotFound
}

func (m *mockUserRepository) GetByPhone(ctx context.Context, phone string) (*domaccount.User, error) {
	if u, ok := m.byPhone[phone]; ok {
		return u, nil
	}
	return nil, domaccount.ErrUserNotFound
}

func (m *mockUserRepository) Create(ctx context.Context, u *domaccount.User) (*domaccount.User, error) {
	m.createCalls++
	if m.raceWinner != nil {
		m.add(m.raceWinner)
		return nil, domaccount.ErrPhoneTaken
	}
	if _, ok := m.byPhone[u.Phone]; ok {
		return nil, domaccount.ErrPhoneTaken
	}
	return m.add(u), nil
}

type mockTokenService struct {
	token  string
	claims *Claims
	err    error
}

func (m *mockTokenService) GenerateToken(u *domaccount.User) (string, error) {
	return m.token, nil
}

func (m *mockTokenService) ParseToken(token string) (*Claims, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

// mockPasswords accepts the literal password "correct" for any hash and
// "hashes" by prefixing.
type mockPasswords struct{}

func (mockPasswords) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (mockPasswords) Compare(hash, password string) error {
	if password == "correct" || hash == "hashed:"+password {
		return nil
	}
	return domaccount.ErrUnauthorized
}

func TestResolveOrCreateGuest_CreatesOnFirstContact(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewService(repo, &mockTokenService{}, mockPasswords{})

	u, err := svc.ResolveOrCreateGuest(context.Background(), "+98 912 345 6789", "  Sara  ")

	require.NoError(t, err)
	require.Equal(t, "09123456789", u.Phone)
	require.Equal(t, "Sara", u.FullName)
	require.True(t, u.IsActive)
	require.True(t, u.IsGuest())
	require.Equal(t, 1, repo.createCalls)
}

func TestResolveOrCreateGuest_IdempotentPerNormalizedPhone(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewService(repo, &mockTokenService{}, mockPasswords{})

	first, err := svc.ResolveOrCreateGuest(context.Background(), "09123456789", "Sara")
	require.NoError(t, err)

	// Same number in a different notation resolves to the same account.
	second, err := svc.ResolveOrCreateGuest(context.Background(), "00989123456789", "Someone Else")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Sara", second.FullName)
	require.Equal(t, 1, repo.createCalls)
}

func TestResolveOrCreateGuest_LostRaceFetchesWinner(t *testing.T) {
	repo := newMockUserRepository()
	repo.raceWinner = &domaccount.User{ID: 42, Phone: "09123456789", IsActive: true}
	svc := NewService(repo, &mockTokenService{}, mockPasswords{})

	u, err := svc.ResolveOrCreateGuest(context.Background(), "09123456789", "Sara")

	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
}

func TestResolveOrCreateGuest_RejectsNonMobile(t *testing.T) {
	svc := NewService(newMockUserRepository(), &mockTokenService{}, mockPasswords{})

	for _, raw := range []string{"", "021 1234", "12345", "not a phone"} {
		_, err := svc.ResolveOrCreateGuest(context.Background(), raw, "Sara")
		require.ErrorIs(t, err, domaccount.ErrPhoneRequired, "input %q", raw)
	}
}

func TestProvisionStaff_CreatesAccountThatCanLogIn(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewService(repo, &mockTokenService{token: "staff-token"}, mockPasswords{})

	u, err := svc.ProvisionStaff(context.Background(), "+98 912 000 0200", "  Operator  ", "s3cret")

	require.NoError(t, err)
	require.Equal(t, "09120000200", u.Phone)
	require.Equal(t, "Operator", u.FullName)
	require.True(t, u.IsStaff)
	require.False(t, u.IsGuest())
	require.Equal(t, "hashed:s3cret", u.PasswordHash)

	_, token, err := svc.Login(context.Background(), "09120000200", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "staff-token", token)
}

func TestProvisionStaff_TakenPhoneRejected(t *testing.T) {
	repo := newMockUserRepository()
	repo.add(&domaccount.User{Phone: "09120000200", IsActive: true})
	svc := NewService(repo, &mockTokenService{}, mockPasswords{})

	_, err := svc.ProvisionStaff(context.Background(), "09120000200", "Operator", "s3cret")

	require.ErrorIs(t, err, domaccount.ErrPhoneTaken)
}

func TestProvisionStaff_RejectsNonMobile(t *testing.T) {
	svc := NewService(newMockUserRepository(), &mockTokenService{}, mockPasswords{})

	_, err := svc.ProvisionStaff(context.Background(), "021 1234", "Operator", "s3cret")

	require.ErrorIs(t, err, domaccount.ErrPhoneRequired)
}

func TestLogin_StaffWithPassword(t *testing.T) {
	repo := newMockUserRepository()
	repo.add(&domaccount.User{Phone: "09123456789", PasswordHash: "$2a$10$hash", IsActive: true, IsStaff: true})
	svc := NewService(repo, &mockTokenService{token: "staff-token"}, mockPasswords{})

	u, token, err := svc.Login(context.Background(), "+989123456789", "correct")

	require.NoError(t, err)
	require.True(t, u.IsStaff)
	require.Equal(t, "staff-token", token)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockUserRepository()
	repo.add(&domaccount.User{Phone: "09123456789", PasswordHash: "$2a$10$hash", IsActive: true})
	svc := NewService(repo, &mockTokenService{}, mockPasswords{})

	_, _, err := svc.Login(context.Background(), "09123456789", "wrong")

	require.ErrorIs(t, err, domaccount.ErrUnauthorized)
}

func TestLogin_GuestAccountCannotLogIn(t *testing.T) {
	repo := newMockUserRepository()
	repo.add(&domaccount.User{Phone: "09123456789", IsActive: true})
	svc := NewService(repo, &mockTokenService{}, mockPasswords{})

	_, _, err := svc.Login(context.Background(), "09123456789", "correct")

	require.ErrorIs(t, err, domaccount.ErrUnauthorized)
}

func TestLogin_UnknownPhone(t *testing.T) {
	svc := NewService(newMockUserRepository(), &mockTokenService{}, mockPasswords{})

	_, _, err := svc.Login(context.Background(), "09120000000", "correct")

	require.ErrorIs(t, err, domaccount.ErrUnauthorized)
}

func TestAuthenticate_RejectsBadToken(t *testing.T) {
	svc := NewService(newMockUserRepository(), &mockTokenService{err: domaccount.ErrUnauthorized}, mockPasswords{})

	_, _, err := svc.Authenticate(context.Background(), "garbage")

	require.ErrorIs(t, err, domaccount.ErrUnauthorized)
}

func TestAuthenticate_RejectsDeactivatedAccount(t *testing.T) {
	repo := newMockUserRepository()
	u := repo.add(&domaccount.User{Phone: "09123456789", IsActive: false})
	svc := NewService(repo, &mockTokenService{claims: &Claims{UserID: u.ID, Phone: u.Phone}}, mockPasswords{})

	_, _, err := svc.Authenticate(context.Background(), "token")

	require.ErrorIs(t, err, domaccount.ErrUnauthorized)
}

func TestAuthenticate_LoadsLiveAccount(t *testing.T) {
	repo := newMockUserRepository()
	u := repo.add(&domaccount.User{Phone: "09123456789", IsActive: true, IsStaff: true})
	svc := NewService(repo, &mockTokenService{claims: &Claims{UserID: u.ID, Phone: u.Phone, IsStaff: true}}, mockPasswords{})

	got, claims, err := svc.Authenticate(context.Background(), "token")

	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.True(t, claims.IsStaff)
}
