package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gba-rental/internal/auth"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	userdb "gba-rental/internal/user/db"
)

// ErrInvalidCredentials is returned on any login failure. The cause is
// deliberately not distinguished in the response.
var ErrInvalidCredentials = errors.New("invalid email or password")

type DBLayer interface {
	CreateUser(user models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUser(user models.User) error
	DeleteUser(id string) error
}

// WelcomeNotifier queues the post-registration welcome email.
type WelcomeNotifier interface {
	Welcome(user models.User) error
}

type UserService struct {
	DB       DBLayer
	Issuer   *auth.TokenIssuer
	Notifier WelcomeNotifier

	logger *logger.Logger
}

func NewUserService(db DBLayer, issuer *auth.TokenIssuer, notifier WelcomeNotifier, log *logger.Logger) *UserService {
	return &UserService{DB: db, Issuer: issuer, Notifier: notifier, logger: log}
}

// Register creates the account, hashes the password, queues the welcome
// email, and logs the new user straight in.
func (s *UserService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.DB.GetUserByEmail(email); err == nil && existing != nil {
		return nil, userdb.ErrEmailTaken
	} else if err != nil && !errors.Is(err, userdb.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		UserID:    uuid.NewString(),
		Name:      req.Name,
		Email:     email,
		Password:  string(hashed),
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}
	if err := s.DB.CreateUser(user); err != nil {
		s.logger.Error("USER", fmt.Sprintf("Failed to create user %s: %v", email, err))
		return nil, err
	}
	s.logger.Info("USER", fmt.Sprintf("Registered user %s (%s)", user.UserID, email))

	// Best effort: a notification failure never fails registration.
	if err := s.Notifier.Welcome(user); err != nil {
		s.logger.Warn("USER", fmt.Sprintf("Failed to queue welcome notification for %s: %v", user.UserID, err))
	}

	return s.issueAuthResponse(user)
}

// Login verifies credentials and hands out a fresh token.
func (s *UserService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.DB.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, userdb.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.logger.Warn("USER", fmt.Sprintf("Failed login attempt for %s", user.Email))
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("USER", fmt.Sprintf("User %s logged in", user.UserID))
	return s.issueAuthResponse(*user)
}

// GetProfile returns the caller's own record.
func (s *UserService) GetProfile(userID string) (*models.User, error) {
	return s.DB.GetUserByID(userID)
}

// ListUsers returns every registered user (admin).
func (s *UserService) ListUsers() ([]models.User, error) {
	return s.DB.ListUsers()
}

// UpdateUser patches name, email, and role (admin). Empty fields keep
// their current value.
func (s *UserService) UpdateUser(userID string, req models.UserUpdateRequest) (*models.User, error) {
	user, err := s.DB.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Role != "" {
		user.Role = req.Role
	}

	if err := s.DB.UpdateUser(*user); err != nil {
		return nil, err
	}
	s.logger.Info("USER", fmt.Sprintf("Updated user %s", userID))
	return user, nil
}

// DeleteUser removes an account (admin).
func (s *UserService) DeleteUser(userID string) error {
	if err := s.DB.DeleteUser(userID); err != nil {
		return err
	}
	s.logger.Info("USER", fmt.Sprintf("Deleted user %s", userID))
	return nil
}

func (s *UserService) issueAuthResponse(user models.User) (*models.AuthResponse, error) {
	token, err := s.Issuer.Issue(user.UserID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &models.AuthResponse{
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Token:  token,
	}, nil
}
