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

type CommentHandler struct {
	commentService *services.CommentService
	postService    *services.PostService
}

func NewCommentHandler(commentService *services.CommentService, postService *services.PostService) *CommentHandler {
	return &CommentHandler{commentService: commentService, postService: postService}
}

// GetComments godoc
// @Summary Дерево комментариев поста
// @Description Не-админ видит только одобренные; ответы на неодобренные поднимаются в корень с пометкой parent_removed.
// @Tags comments
// @Produce json
// @Param slug path string true "Слаг поста"
// @Success 200 {object} models.CommentThread
// @Failure 404 {string} string "Пост не найден"
// @Router /api/posts/{slug}/comments [get]
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	slug := mux.Vars(r)["slug"]

	post, err := h.postService.GetBySlug(r.Context(), slug, false)
	if err != nil {
		respondError(w, err)
		return
	}

	isAdmin := isAdminCtx(r.Context())
	if !post.Published && !isAdmin {
		respondError(w, services.ErrNotFound)
		return
	}

	thread, err := h.commentService.GetThread(r.Context(), post.ID, isAdmin)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Debug("Комментарии отданы",
		zap.Int64("post_id", post.ID),
		zap.Int("total", thread.Total),
	)
	helpers.JSON(w, http.StatusOK, thread)
}

// SubmitComment godoc
// @Summary Оставить комментарий
// @Description Комментарий попадает в очередь модерации; у админа одобряется сразу.
// @Tags comments
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param slug path string true "Слаг поста"
// @Param input body models.SubmitCommentRequest true "Текст и необязательный parent_id"
// @Success 201 {object} models.Comment
// @Failure 400 {string} string "Ошибка запроса"
// @Failure 404 {string} string "Пост не найден"
// @Router /api/posts/{slug}/comments [post]
func (h *CommentHandler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	slug := mux.Vars(r)["slug"]

	post, err := h.postService.GetBySlug(r.Context(), slug, false)
	if err != nil {
		respondError(w, err)
		return
	}
	if !post.Published && !isAdminCtx(r.Context()) {
		respondError(w, services.ErrNotFound)
		return
	}

	var req models.SubmitCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON при создании комментария", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	req.PostID = post.ID

	comment, err := h.commentService.Submit(r.Context(), userIDFromCtx(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, comment)
}

// ModerationQueue godoc
// @Summary Очередь модерации комментариев (только admin)
// @Tags admin-comments
// @Security ApiKeyAuth
// @Produce json
// @Param status query string false "pending | approved | all (по умолчанию pending)"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {array} models.CommentWithAuthor
// @Router /api/admin/comments [get]
func (h *CommentHandler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := q.Get("status")
	if status == "" {
		status = "pending"
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}

	items, total, err := h.commentService.ModerationQueue(
		r.Context(), userIDFromCtx(r.Context()), status, limit, (page-1)*limit)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// ApproveComment godoc
// @Summary Одобрить комментарий (только admin)
// @Tags admin-comments
// @Security ApiKeyAuth
// @Param id path int true "ID комментария"
// @Success 200 {string} string "Одобрено"
// @Failure 404 {string} string "Комментарий не найден"
// @Router /api/admin/comments/{id} [patch]
func (h *CommentHandler) ApproveComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.commentService.Approve(r.Context(), userIDFromCtx(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "Одобрено")
}

// DeleteComment godoc
// @Summary Удалить комментарий с поддеревом ответов (только admin)
// @Tags admin-comments
// @Security ApiKeyAuth
// @Param id path int true "ID комментария"
// @Success 200 {string} string "Удалено"
// @Failure 404 {string} string "Комментарий не найден"
// @Router /api/admin/comments/{id} [delete]
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.commentService.Delete(r.Context(), userIDFromCtx(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "Удалено")
}
