package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/snaplink/snaplink/internal/model"
	"github.com/snaplink/snaplink/internal/repository"
	"github.com/snaplink/snaplink/internal/token"
)

// ErrBadCredentials is the single failure returned for every login
// problem. Unknown usernames and wrong passwords are deliberately not
// distinguished, to avoid username enumeration.
var ErrBadCredentials = errors.New("invalid username or password")

// UsernameTakenError is returned when registering a username that
// already exists.
type UsernameTakenError struct {
	Username string
}

func (e *UsernameTakenError) Error() string {
	return "Username already exists: " + e.Username
}

// PasswordHasher abstracts the password hashing scheme.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher hashes passwords with bcrypt at the default cost.
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// AuthService registers accounts and exchanges credentials for access
// tokens.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *token.Service
	hasher PasswordHasher
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *token.Service, hasher PasswordHasher) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: zap.L().With(zap.String("component", "AuthService")),
	}
}

func (s *authService) Register(ctx context.Context, username, password string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return &UsernameTakenError{Username: username}
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrUsernameTaken) {
		// Lost the race against a concurrent registration with the
		// same name.
		return &UsernameTakenError{Username: username}
	}
	if err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return err
	}

	s.logger.Info("User registered", zap.Int64("id", user.ID), zap.String("username", username))
	return nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrBadCredentials
		}
		return "", err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", ErrBadCredentials
	}

	tokenString, err := s.tokens.Generate(user.Username)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return "", err
	}

	return tokenString, nil
}
