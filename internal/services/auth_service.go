package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID   string        `json:"user_id"`
	Username string        `json:"username"`
	Roles    []models.Role `json:"roles"`
	jwt.StandardClaims
}

// RegisterInput is the data accepted for a new account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	// Role is buyer or seller; admins are only created from configuration.
	Role string `json:"role" validate:"omitempty,oneof=buyer seller"`
}

// AuthService issues and verifies credentials. It is the Access Guard of the service.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	role := models.RoleBuyer
	if in.Role != "" {
		r, ok := models.ParseRole(in.Role)
		if !ok || r == models.RoleAdmin {
			return nil, apperrors.Validation("invalid role", apperrors.FieldError{Field: "role", Message: "must be buyer or seller"})
		}
		role = r
	}
	return s.createUser(ctx, in.Username, in.Email, in.Password, role)
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.Conflict("username '%s' already taken", username)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email '%s' already registered", email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Username: username,
		Email:    strings.ToLower(email),
		Password: string(hashed),
		Roles:    []models.UserRole{{Role: role}},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("username or email already registered")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", apperrors.Internal(err)
		}
		return "", apperrors.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperrors.Unauthorized("invalid credentials")
	}
	return s.IssueToken(user)
}

// IssueToken signs a token carrying the user's id and roles.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.RoleList(),
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}
	return signed, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Authenticate turns a bearer credential into the caller's identity.
func (s *AuthService) Authenticate(credential string) (models.Identity, error) {
	claims, err := s.ValidateToken(credential)
	if err != nil {
		return models.Identity{}, &apperrors.Error{
			Kind:    apperrors.KindUnauthorized,
			Message: "invalid or expired token",
			Err:     err,
		}
	}

	roles := make([]models.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		if _, ok := models.ParseRole(string(r)); ok {
			roles = append(roles, r)
		}
	}
	return models.Identity{UserID: claims.UserID, Roles: roles}, nil
}

// EnsureAdmin creates the bootstrap admin account unless the username exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	user, err := s.createUser(ctx, username, email, password, models.RoleAdmin)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "bootstrap admin created", "user_id", user.ID, "username", username)
	return nil
}
