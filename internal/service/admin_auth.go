package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/desamiantage-leads/internal/auth"
)

// ErrInvalidCredentials is returned when the email or password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminAuthService checks the single operator account configured through the
// environment and issues admin tokens.
type AdminAuthService struct {
	email        string
	passwordHash []byte
	jwt          *auth.JWTManager
}

// NewAdminAuthService constructs a new AdminAuthService.
func NewAdminAuthService(email, passwordHash string, jwtManager *auth.JWTManager) *AdminAuthService {
	return &AdminAuthService{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		jwt:          jwtManager,
	}
}

// Login validates credentials and returns a JWT with its lifetime in seconds.
func (s *AdminAuthService) Login(_ context.Context, email, password string) (string, int64, error) {
	if email == "" || password == "" {
		return "", 0, errors.New("email and password must not be empty")
	}
	if s.email == "" || len(s.passwordHash) == 0 {
		return "", 0, ErrInvalidCredentials
	}

	// Compare the hash before the email to keep timing uniform.
	hashErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if strings.ToLower(strings.TrimSpace(email)) != s.email || hashErr != nil {
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(auth.RoleAdmin, s.email, auth.RoleAdmin)
	if err != nil {
		return "", 0, err
	}

	return token, int64(s.jwt.TTL().Seconds()), nil
}
