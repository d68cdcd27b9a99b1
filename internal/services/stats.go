package services

import (
	"context"

	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/repository"

	"go.uber.org/zap"
)

type StatsService struct {
	repo *repository.StatsRepo
}

func NewStatsService(repo *repository.StatsRepo) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) GetBlogStats(ctx context.Context) (*models.BlogStats, error) {
	log := logger.WithCtx(ctx)

	stats, err := s.repo.GetBlogStats(ctx, 5)
	if err != nil {
		log.Error("Ошибка сбора статистики (repo)", zap.Error(err))
		return nil, err
	}

	log.Debug("Статистика собрана",
		zap.Int("posts", stats.TotalPosts),
		zap.Int("comments", stats.TotalComments),
	)
	return stats, nil
}
