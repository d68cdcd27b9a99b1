package handlers

import (
	"net/http"

	"blogtalks/internal/services"
	helpers "blogtalks/internal/utils/helpers"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats godoc
// @Summary Сводная статистика блога (только admin)
// @Description Счётчики постов, комментариев, просмотров и топ постов по просмотрам.
// @Tags admin-stats
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.BlogStats
// @Router /api/admin/stats [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetBlogStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, stats)
}
