package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"blogtalks/internal/config"
	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/services"
	"blogtalks/internal/utils"
	helpers "blogtalks/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	storage     *services.StorageService
}

func NewAuthHandler(authService *services.AuthService, storage *services.StorageService) *AuthHandler {
	return &AuthHandler{authService: authService, storage: storage}
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register
// @Summary      Регистрация
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  registerRequest  true  "Данные пользователя"
// @Success      201   {object} map[string]int
// @Failure      400   {object} helpers.Response
// @Failure      409   {object} helpers.Response
// @Router       /api/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Register: невалидный JSON", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	if err := h.authService.RegisterUser(r.Context(), user, req.Password); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, map[string]int{"id": user.ID})
}

// Login
// @Summary      Вход
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Логин и пароль"
// @Success      200   {object} tokenPair
// @Failure      401   {object} helpers.Response
// @Router       /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Login: невалидный JSON", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	cfg, _ := config.LoadConfig()
	accessTTL, _ := time.ParseDuration(cfg.AccessTokenTTL)
	refreshTTL, _ := time.ParseDuration(cfg.RefreshTokenTTL)

	access, refresh, err := h.authService.LoginUser(
		r.Context(), req.Username, req.Password, cfg.JWTSecret, accessTTL, refreshTTL)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, tokenPair{AccessToken: access, RefreshToken: refresh})
}

// Refresh
// @Summary      Обновление access-токена
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]string  true  "refresh_token"
// @Success      200   {object} tokenPair
// @Failure      401   {object} helpers.Response
// @Router       /api/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req struct {
		UserID       int    `json:"user_id"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	valid, err := h.authService.ValidateRefreshToken(r.Context(), req.UserID, req.RefreshToken)
	if err != nil || !valid {
		log.Warn("Refresh: недействительный refresh-токен", zap.Int("user_id", req.UserID))
		helpers.Error(w, http.StatusUnauthorized, "недействительный refresh-токен")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	cfg, _ := config.LoadConfig()
	accessTTL, _ := time.ParseDuration(cfg.AccessTokenTTL)
	refreshTTL, _ := time.ParseDuration(cfg.RefreshTokenTTL)

	accessToken, err := utils.GenerateToken(cfg.JWTSecret, user.ID, user.Role, accessTTL, "access")
	if err != nil {
		respondError(w, err)
		return
	}
	refreshToken, err := utils.GenerateToken(cfg.JWTSecret, user.ID, user.Role, refreshTTL, "refresh")
	if err != nil {
		respondError(w, err)
		return
	}

	// старый refresh ротируем на новый
	_ = h.authService.Logout(r.Context(), user.ID, req.RefreshToken)
	if err := h.authService.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, tokenPair{AccessToken: accessToken, RefreshToken: refreshToken})
}

// Logout
// @Summary      Выход (инвалидация refresh-токена)
// @Tags         auth
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Success      204 {string} string "No Content"
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	userID := userIDFromCtx(r.Context())
	if err := h.authService.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Profile
// @Summary      Свой профиль
// @Tags         profile
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200 {object} models.UserProfileResponse
// @Failure      401 {object} helpers.Response
// @Router       /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromCtx(r.Context())
	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, models.UserProfileResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Bio:         user.Bio,
		CardBg:      user.CardBg,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}

// UpdateProfile
// @Summary      Обновить свой профиль
// @Tags         profile
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        body  body  models.UpdateProfileRequest  true  "Поля для обновления"
// @Success      204   {string} string "No Content"
// @Failure      403   {object} helpers.Response
// @Router       /api/profile [patch]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	userID := userIDFromCtx(r.Context())
	if err := h.authService.UpdateProfile(r.Context(), userID, userID, &req); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadAvatar
// @Summary      Загрузить аватар
// @Tags         profile
// @Security     ApiKeyAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Картинка"
// @Success      200  {object} map[string]string
// @Failure      400  {object} helpers.Response
// @Router       /api/profile/avatar [post]
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if !h.storage.Enabled() {
		helpers.Error(w, http.StatusServiceUnavailable, "хранилище файлов не настроено")
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		log.Warn("UploadAvatar: ошибка разбора формы", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "ошибка разбора формы")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "файл не найден")
		return
	}
	defer file.Close()

	url, err := h.storage.UploadImage(r.Context(), file, header.Size,
		header.Header.Get("Content-Type"), "avatars")
	if err != nil {
		respondError(w, err)
		return
	}

	userID := userIDFromCtx(r.Context())
	if err := h.authService.UpdateProfile(r.Context(), userID, userID,
		&models.UpdateProfileRequest{AvatarURL: &url}); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// GetUsers
// @Summary      Список пользователей (админ)
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Param        page   query  int  false  "Страница"
// @Param        limit  query  int  false  "Размер страницы"
// @Success      200 {object} map[string]interface{}
// @Router       /api/admin/users [get]
func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	users, total, err := h.authService.GetUsersPaginated(r.Context(), limit, (page-1)*limit)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// UpdateUser
// @Summary      Обновить пользователя (админ)
// @Tags         admin
// @Security     ApiKeyAuth
// @Accept       json
// @Param        id    path  int  true  "ID пользователя"
// @Param        body  body  models.UpdateProfileRequest true "Поля"
// @Success      204   {string} string "No Content"
// @Router       /api/admin/users/{id} [patch]
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	if err := h.authService.UpdateProfile(r.Context(), userIDFromCtx(r.Context()), id, &req); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser
// @Summary      Удалить пользователя (админ)
// @Tags         admin
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "ID пользователя"
// @Success      204 {string} string "No Content"
// @Router       /api/admin/users/{id} [delete]
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	if err := h.authService.DeleteUserByID(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
