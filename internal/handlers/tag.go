package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/services"
	helpers "blogtalks/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type TagHandler struct {
	tagService *services.TagService
}

func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

type saveTagRequest struct {
	Name string `json:"name" example:"базы данных"`
}

// ListTags godoc
// @Summary Список тегов со счётчиками постов
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /api/tags [get]
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, tags)
}

// CreateTag godoc
// @Summary Создать тег, если его ещё нет (только admin)
// @Description Идемпотентно по имени: существующий тег возвращается как есть.
// @Tags admin-tags
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body saveTagRequest true "Имя тега"
// @Success 200 {object} models.Tag "Тег уже существовал"
// @Success 201 {object} models.Tag "Тег создан"
// @Failure 400 {string} string "Пустое имя"
// @Router /api/admin/tags [post]
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req saveTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON при создании тега", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	tag, created, err := h.tagService.EnsureTagExists(r.Context(), userIDFromCtx(r.Context()), req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.JSON(w, status, tag)
}

// EnsureTags godoc
// @Summary Создать пачку тегов (только admin)
// @Description Каждое имя обрабатывается независимо, в ответе поимённые результаты.
// @Tags admin-tags
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.EnsureTagsRequest true "Имена тегов"
// @Success 200 {array} models.TagEnsureResult
// @Router /api/admin/tags/ensure [post]
func (h *TagHandler) EnsureTags(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.EnsureTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON при bulk-создании тегов", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	results, err := h.tagService.EnsureTagsExist(r.Context(), userIDFromCtx(r.Context()), req.Names)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, results)
}

// UpdateTag godoc
// @Summary Переименовать тег (только admin)
// @Tags admin-tags
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID тега"
// @Param input body saveTagRequest true "Новое имя"
// @Success 200 {object} models.Tag
// @Failure 404 {string} string "Тег не найден"
// @Router /api/admin/tags/{id} [patch]
func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	var req saveTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	tag, err := h.tagService.UpdateTag(r.Context(), userIDFromCtx(r.Context()), id, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, tag)
}

// DeleteTag godoc
// @Summary Удалить тег (только admin)
// @Tags admin-tags
// @Security ApiKeyAuth
// @Param id path int true "ID тега"
// @Success 200 {string} string "Удалено"
// @Failure 404 {string} string "Тег не найден"
// @Router /api/admin/tags/{id} [delete]
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.tagService.DeleteTag(r.Context(), userIDFromCtx(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "Удалено")
}
