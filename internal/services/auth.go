package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// UserRepo — всё, что auth-сервису нужно от хранилища пользователей.
type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetAllUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	UpdateUserFields(ctx context.Context, id int, input *models.UpdateProfileRequest) error
	DeleteUser(ctx context.Context, id int) error
	SaveRefreshToken(ctx context.Context, userID int, token string) error
	IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int, token string) error
}

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

// GetUserByID — реализация UserDirectory для остальных сервисов.
func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пользователь %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) RegisterUser(ctx context.Context, input *models.User, plainPassword string) error {
	log := logger.WithCtx(ctx)

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" || input.Email == "" || plainPassword == "" {
		return fmt.Errorf("логин, email и пароль обязательны: %w", ErrValidation)
	}

	taken, err := s.repo.IsUsernameTaken(ctx, input.Username)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("логин занят: %w", ErrConflict)
	}

	taken, err = s.repo.IsEmailTaken(ctx, input.Email)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email занят: %w", ErrConflict)
	}

	hash, err := utils.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	input.PasswordHash = hash

	if input.Role == "" {
		input.Role = "user"
	}
	if input.DisplayName == "" {
		input.DisplayName = input.Username
	}

	if err := s.repo.CreateUser(ctx, input); err != nil {
		log.Error("Ошибка создания пользователя (repo)", zap.Error(err))
		return err
	}

	log.Info("Пользователь зарегистрирован",
		zap.Int("id", input.ID), zap.String("username", input.Username))
	return nil
}

func (s *AuthService) LoginUser(
	ctx context.Context,
	username, password, secret string,
	accessTTL, refreshTTL time.Duration,
) (string, string, error) {
	log := logger.WithCtx(ctx)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		log.Warn("Логин: пользователь не найден", zap.String("username", username))
		return "", "", fmt.Errorf("неверный логин или пароль: %w", ErrUnauthenticated)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		log.Warn("Логин: неверный пароль", zap.String("username", username))
		return "", "", fmt.Errorf("неверный логин или пароль: %w", ErrUnauthenticated)
	}

	access, err := utils.GenerateToken(secret, user.ID, user.Role, accessTTL, "access")
	if err != nil {
		return "", "", err
	}
	refresh, err := utils.GenerateToken(secret, user.ID, user.Role, refreshTTL, "refresh")
	if err != nil {
		return "", "", err
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID, refresh); err != nil {
		return "", "", err
	}

	log.Info("Пользователь вошёл", zap.Int("user_id", user.ID), zap.String("role", user.Role))
	return access, refresh, nil
}

func (s *AuthService) ValidateRefreshToken(ctx context.Context, userID int, token string) (bool, error) {
	return s.repo.IsRefreshTokenValid(ctx, userID, token)
}

func (s *AuthService) SaveRefreshToken(ctx context.Context, userID int, token string) error {
	return s.repo.SaveRefreshToken(ctx, userID, token)
}

func (s *AuthService) Logout(ctx context.Context, userID int, token string) error {
	return s.repo.DeleteRefreshToken(ctx, userID, token)
}

func (s *AuthService) GetUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	return s.repo.GetAllUsers(ctx, limit, offset)
}

// UpdateProfile — владелец правит свой профиль, админ — любой.
// Смена роли доступна только админу.
func (s *AuthService) UpdateProfile(ctx context.Context, actingUserID, targetID int, input *models.UpdateProfileRequest) error {
	log := logger.WithCtx(ctx)

	if actingUserID <= 0 {
		return ErrUnauthenticated
	}
	acting, err := s.GetUserByID(ctx, actingUserID)
	if err != nil {
		return ErrUnauthenticated
	}

	if targetID != actingUserID && !acting.IsAdmin() {
		return ErrForbidden
	}
	if input.Role != nil && !acting.IsAdmin() {
		return fmt.Errorf("смена роли: %w", ErrForbidden)
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			return fmt.Errorf("пустой email: %w", ErrValidation)
		}
		input.Email = &email
	}

	if err := s.repo.UpdateUserFields(ctx, targetID, input); err != nil {
		log.Error("Ошибка обновления профиля (repo)", zap.Int("id", targetID), zap.Error(err))
		return err
	}

	log.Info("Профиль обновлён", zap.Int("id", targetID))
	return nil
}

func (s *AuthService) DeleteUserByID(ctx context.Context, id int) error {
	return s.repo.DeleteUser(ctx, id)
}
