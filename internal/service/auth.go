package service

import (
	"crypto/subtle"

	"glossari/internal/repository"
)

// AuthService handles authentication logic
type AuthService struct {
	userRepo    repository.UserRepository
	botPassword string
	apiToken    string
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, botPassword, apiToken string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		botPassword: botPassword,
		apiToken:    apiToken,
	}
}

// CheckPassword verifies if provided password matches the bot password
func (s *AuthService) CheckPassword(password string) bool {
	return s.botPassword != "" && password == s.botPassword
}

// CheckToken verifies an HTTP API bearer token
func (s *AuthService) CheckToken(token string) bool {
	if s.apiToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) == 1
}

// IsAuthorized checks if user is authorized
func (s *AuthService) IsAuthorized(userID int64) (bool, error) {
	return s.userRepo.IsAuthorized(userID)
}

// AuthorizeUser authorizes a user
func (s *AuthService) AuthorizeUser(userID int64) error {
	return s.userRepo.AuthorizeUser(userID)
}

// EnsureUserExists creates user record if doesn't exist
func (s *AuthService) EnsureUserExists(userID int64) error {
	return s.userRepo.EnsureUserExists(userID)
}
