package handlers

import (
	"net/http"

	"blogtalks/internal/logger"
	"blogtalks/internal/services"
	helpers "blogtalks/internal/utils/helpers"

	"go.uber.org/zap"
)

// максимум 10 МБ на картинку
const maxUploadSize = 10 << 20

type UploadHandler struct {
	storage *services.StorageService
}

func NewUploadHandler(storage *services.StorageService) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadImage godoc
// @Summary Загрузить картинку для поста (только admin)
// @Description Принимает multipart-поле file, кладёт в S3 и возвращает публичный URL.
// @Tags admin-uploads
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Картинка (jpeg, png, gif, webp)"
// @Param folder query string false "Подпапка: covers | editor (по умолчанию editor)"
// @Success 201 {object} map[string]string "url загруженного файла"
// @Failure 400 {string} string "Файл не передан или недопустимый тип"
// @Router /api/admin/uploads/image [post]
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if !h.storage.Enabled() {
		helpers.Error(w, http.StatusServiceUnavailable, "Хранилище файлов не настроено")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Файл слишком большой или форма повреждена")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Поле file обязательно")
		return
	}
	defer file.Close()

	folder := r.URL.Query().Get("folder")
	switch folder {
	case "covers", "editor":
	default:
		folder = "editor"
	}

	url, err := h.storage.UploadImage(r.Context(),
		file, header.Size, header.Header.Get("Content-Type"), folder)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info("Картинка загружена", zap.String("url", url), zap.String("folder", folder))
	helpers.JSON(w, http.StatusCreated, map[string]string{"url": url})
}
