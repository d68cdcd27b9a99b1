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

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// ListPosts godoc
// @Summary Список постов с фильтрами
// @Tags posts
// @Produce json
// @Param tag query string false "Слаг тега"
// @Param category query string false "Категория"
// @Param search query string false "Поиск по заголовку и тексту"
// @Param featured query bool false "Только избранные"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы (макс. 50)"
// @Success 200 {object} models.PostList
// @Router /api/posts [get]
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	q := r.URL.Query()
	filter := models.PostFilter{
		Tag:      q.Get("tag"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if v := q.Get("featured"); v != "" {
		featured := v == "true" || v == "1"
		filter.Featured = &featured
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))

	// черновики видит только админ, и только если явно попросил
	published := true
	if isAdminCtx(r.Context()) {
		switch q.Get("published") {
		case "false", "0":
			published = false
			filter.Published = &published
		case "all":
		default:
			filter.Published = &published
		}
	} else {
		filter.Published = &published
	}

	list, err := h.postService.List(r.Context(), filter, page)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Debug("Список постов отдан", zap.Int("total", list.Total), zap.Int("page", list.Page))
	helpers.JSON(w, http.StatusOK, list)
}

// GetPost godoc
// @Summary Получить пост по слагу (двигает счётчик просмотров)
// @Tags posts
// @Produce json
// @Param slug path string true "Слаг поста"
// @Success 200 {object} models.Post
// @Failure 404 {string} string "Пост не найден"
// @Router /api/posts/{slug} [get]
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	// просмотры админа в статистику не идут
	countView := !isAdminCtx(r.Context())

	post, err := h.postService.GetBySlug(r.Context(), slug, countView)
	if err != nil {
		respondError(w, err)
		return
	}

	if !post.Published && !isAdminCtx(r.Context()) {
		respondError(w, services.ErrNotFound)
		return
	}

	helpers.JSON(w, http.StatusOK, post)
}

// CreatePost godoc
// @Summary Создать пост (только admin)
// @Tags admin-posts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.SavePostRequest true "Данные поста"
// @Success 201 {object} models.Post
// @Failure 400 {string} string "Ошибка запроса"
// @Failure 409 {string} string "Слаг занят"
// @Router /api/posts/create [post]
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.SavePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON при создании поста", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	post, err := h.postService.Create(r.Context(), userIDFromCtx(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary Обновить пост (только admin)
// @Tags admin-posts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param slug path string true "Слаг поста"
// @Param input body models.SavePostRequest true "Новое содержимое"
// @Success 200 {object} models.Post
// @Failure 404 {string} string "Пост не найден"
// @Router /api/posts/{slug}/update [put]
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	slug := mux.Vars(r)["slug"]

	var req models.SavePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON при обновлении поста", zap.String("slug", slug), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	post, err := h.postService.Update(r.Context(), userIDFromCtx(r.Context()), slug, req)
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, post)
}

// DeletePost godoc
// @Summary Удалить пост (только admin)
// @Tags admin-posts
// @Security ApiKeyAuth
// @Param slug path string true "Слаг поста"
// @Success 200 {string} string "Удалено"
// @Failure 404 {string} string "Пост не найден"
// @Router /api/posts/{slug}/delete [delete]
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	if err := h.postService.Delete(r.Context(), userIDFromCtx(r.Context()), slug); err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "Удалено")
}
