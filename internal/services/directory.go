package services

import (
	"context"

	"blogtalks/internal/models"
)

// UserDirectory — то, что сервисам нужно знать о пользователях:
// профиль по id. Права не кэшируются, профиль перечитывается на каждый вызов.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}
