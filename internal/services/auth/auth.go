// Package auth содержит бизнес-логику регистрации и аутентификации пользователей.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/subtrackt/subtrackt/internal/lib/jwt"
	"github.com/subtrackt/subtrackt/internal/lib/password"
	"github.com/subtrackt/subtrackt/internal/models"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// RegisterUser добавляет нового пользователя и возвращает его UUID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// RemoveUserByEmail удаляет учётную запись и возвращает количество удалённых записей.
	RemoveUserByEmail(ctx context.Context, email string) (int, error)
}

// AuthService реализует регистрацию, вход и проверку токенов.
type AuthService struct {
	repo       UserRepository
	tokenMaker jwt.Maker
	log        *slog.Logger
}

// New создает новый экземпляр AuthService.
func New(repo UserRepository, tokenMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		tokenMaker: tokenMaker,
		log:        log,
	}
}

// Register создает нового пользователя с ролью user и хешированным паролем.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "services.auth.Register"

	passwordHash, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         "user",
	}

	uid, err := s.repo.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.String("username", username))
	return uid, nil
}

// Login проверяет учетные данные и возвращает JWT-токен.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "services.auth.Login"

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: invalid credentials", op)
	}

	token, err := s.tokenMaker.GenerateToken(user.Username, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// DeleteAccount удаляет учётную запись пользователя; его подписки
// удаляются каскадом на уровне схемы.
func (s *AuthService) DeleteAccount(ctx context.Context, email string) (int, error) {
	const op = "services.auth.DeleteAccount"

	count, err := s.repo.RemoveUserByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		s.log.Info("deleted user account", slog.String("email", email))
	}
	return count, nil
}

// ValidateToken разбирает и проверяет JWT-токен, возвращая его полезную нагрузку.
func (s *AuthService) ValidateToken(tokenStr string) (*jwt.CustomClaims, error) {
	const op = "services.auth.ValidateToken"

	claims, err := s.tokenMaker.ParseToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}
