package services

import "errors"

// Базовая таксономия ошибок сервисного слоя; хендлеры мапят её на
// HTTP-статусы через errors.Is, детали доклеиваются обёрткой %w.
var (
	ErrUnauthenticated = errors.New("требуется вход")
	ErrForbidden       = errors.New("доступ запрещён")
	ErrValidation      = errors.New("неверные данные")
	ErrNotFound        = errors.New("не найдено")
	ErrConflict        = errors.New("конфликт")
)
