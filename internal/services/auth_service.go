package services

import (
	"context"
	"strings"
	"time"

	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Claims identify the admin a token was issued to
type Claims struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService verifies admin credentials and issues bearer tokens
type AuthService struct {
	admins *repositories.AdminRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service signing tokens with secret
func NewAuthService(admins *repositories.AdminRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		admins: admins,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login checks a username and password and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	invalid := newError(KindUnauthorized, "Invalid credentials")

	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", invalid
		}
		return "", storageError(err, "failed to look up admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		log.Warn().Str("username", admin.Username).Msg("failed login attempt")
		return "", invalid
	}

	return s.IssueToken(admin)
}

// IssueToken signs an HS256 token for admin
func (s *AuthService) IssueToken(admin *models.Admin) (string, error) {
	now := s.now()
	claims := Claims{
		ID:       admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", storageError(err, "failed to sign token")
	}
	return token, nil
}

// VerifyToken parses and validates a token
func (s *AuthService) VerifyToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, newError(KindUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}

// CreateAdmin stores a new admin with a bcrypt hash of password
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, newError(KindValidation, "Username and password are required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{Username: username, Password: hash}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, storageError(err, "failed to create admin")
	}
	return admin, nil
}

// ChangePassword replaces the password of an existing admin
func (s *AuthService) ChangePassword(ctx context.Context, username, password string) error {
	if password == "" {
		return newError(KindValidation, "Password is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	if err := s.admins.UpdatePassword(ctx, username, hash); err != nil {
		return notFoundOr(err, "Admin not found", "failed to update password")
	}
	return nil
}

// EnsureAdmin creates the admin unless one with that username exists.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, storageError(err, "failed to look up admin")
	}

	if _, err := s.CreateAdmin(ctx, username, password); err != nil {
		return false, err
	}
	log.Info().Str("username", username).Msg("Default admin created")
	return true, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", storageError(err, "failed to hash password")
	}
	return string(hash), nil
}
