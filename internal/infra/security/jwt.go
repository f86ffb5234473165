package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
	accountuc "github.com/hsdarestani/vaadehrep/internal/usecase/account"
)

var ErrInvalidToken = errors.New("invalid token")

type JWTService struct {
	secret     []byte
	expiration time.Duration
}

func NewJWTService(secret string, expiration time.Duration) *JWTService {
	return &JWTService{
		secret:     []byte(secret),
		expiration: expiration,
	}
}

type jwtClaims struct {
	UserID  int64  `json:"uid"`
	Phone   string `json:"phone"`
	IsStaff bool   `json:"staff"`
	jwt.RegisteredClaims
}

func (s *JWTService) GenerateToken(u *domaccount.User) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		UserID:  u.ID,
		Phone:   u.Phone,
		IsStaff: u.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ParseToken(token string) (*accountuc.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return &accountuc.Claims{
		UserID:  claims.UserID,
		Phone:   claims.Phone,
		IsStaff: claims.IsStaff,
	}, nil
}
