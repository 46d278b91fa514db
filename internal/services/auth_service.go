package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kitstore/internal/domain"
	"kitstore/internal/repos"
)

var (
	ErrBadCreds = errors.New("invalid username or password")
	ErrBadToken = errors.New("invalid or expired token")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type tokenClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users      *repos.UserRepo
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Login checks credentials and issues an access/refresh pair.
func (s *AuthService) Login(username, password string) (TokenPair, error) {
	u, err := s.Users.ByUsername(username)
	if err != nil {
		return TokenPair{}, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return TokenPair{}, ErrBadCreds
	}

	access, err := s.issue(u.ID, tokenTypeAccess, s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issue(u.ID, tokenTypeRefresh, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	// The subject must still exist; deleted users cannot refresh.
	if _, err := s.Users.ByID(claims.Subject); err != nil {
		return "", ErrBadToken
	}
	return s.issue(claims.Subject, tokenTypeAccess, s.AccessTTL)
}

// Authenticate resolves a bearer access token to its user.
func (s *AuthService) Authenticate(accessToken string) (*domain.User, error) {
	claims, err := s.parse(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(claims.Subject)
	if err != nil {
		return nil, ErrBadToken
	}
	return u, nil
}

func (s *AuthService) issue(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *AuthService) parse(raw, wantType string) (*tokenClaims, error) {
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.Secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrBadToken
	}
	// A refresh token must never pass as an access token or vice versa.
	if claims.TokenType != wantType || claims.Subject == "" {
		return nil, ErrBadToken
	}
	return &claims, nil
}
