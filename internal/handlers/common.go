package handlers

import (
	"context"
	"errors"
	"net/http"

	"blogtalks/internal/middleware"
	"blogtalks/internal/services"
	helpers "blogtalks/internal/utils/helpers"
)

// statusFromError переводит сервисную таксономию ошибок в HTTP-статус.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError отдаёт клиенту текст ошибки; инфраструктурные детали
// наружу не показываем.
func respondError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		helpers.Error(w, status, "внутренняя ошибка, попробуйте позже")
		return
	}
	helpers.Error(w, status, err.Error())
}

func userIDFromCtx(ctx context.Context) int {
	if v, ok := ctx.Value(middleware.ContextUserID).(int); ok {
		return v
	}
	return 0
}

func isAdminCtx(ctx context.Context) bool {
	role, _ := ctx.Value(middleware.ContextRole).(string)
	return role == "admin"
}
