package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/repository"
	"blogtalks/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type PostService struct {
	repo  repository.PostRepo
	tags  *TagService
	strip *bluemonday.Policy
}

func NewPostService(repo repository.PostRepo, tags *TagService) *PostService {
	return &PostService{
		repo:  repo,
		tags:  tags,
		strip: bluemonday.StrictPolicy(), // excerpt — только текст
	}
}

func (s *PostService) validate(req models.SavePostRequest) error {
	title := strings.TrimSpace(req.Title)
	if l := utf8.RuneCountInString(title); l < 3 || l > 255 {
		return fmt.Errorf("длина заголовка должна быть от 3 до 255 символов: %w", ErrValidation)
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("пустой контент: %w", ErrValidation)
	}
	return nil
}

// Create создаёт пост: слаг выводится из заголовка, коллизия — отказ.
func (s *PostService) Create(ctx context.Context, actingUserID int, req models.SavePostRequest) (*models.Post, error) {
	log := logger.WithCtx(ctx)

	if err := s.validate(req); err != nil {
		log.Warn("Валидация поста не пройдена", zap.Error(err))
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	slug := utils.SlugifyOr(title, "post")

	taken, err := s.repo.SlugExists(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("пост со слагом %q уже существует: %w", slug, ErrConflict)
	}

	tags := normalizeTagNames(req.Tags)

	p := &models.Post{
		AuthorID:   &actingUserID,
		Title:      title,
		Slug:       slug,
		Content:    req.Content,
		Excerpt:    s.strip.Sanitize(strings.TrimSpace(req.Excerpt)),
		CoverImage: req.CoverImage,
		Published:  req.Published,
		Featured:   req.Featured,
		Category:   strings.TrimSpace(req.Category),
		Tags:       tags,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		log.Error("Ошибка создания поста (repo)", zap.Error(err))
		return nil, err
	}

	if err := s.tags.SyncPostTags(ctx, actingUserID, created.ID, tags); err != nil {
		log.Error("Ошибка синхронизации тегов после создания", zap.Int64("post_id", created.ID), zap.Error(err))
		return nil, err
	}

	log.Info("Пост создан",
		zap.Int64("id", created.ID),
		zap.String("slug", created.Slug),
		zap.Bool("published", created.Published),
	)
	return created, nil
}

// Update обновляет пост по слагу; слаг перевыводится из нового заголовка.
func (s *PostService) Update(ctx context.Context, actingUserID int, slug string, req models.SavePostRequest) (*models.Post, error) {
	log := logger.WithCtx(ctx)

	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пост %q: %w", slug, ErrNotFound)
		}
		return nil, err
	}

	if err := s.validate(req); err != nil {
		log.Warn("Валидация поста не пройдена", zap.Error(err))
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	newSlug := utils.SlugifyOr(title, "post")
	if newSlug != p.Slug {
		taken, err := s.repo.SlugExists(ctx, newSlug, p.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("пост со слагом %q уже существует: %w", newSlug, ErrConflict)
		}
	}

	tags := normalizeTagNames(req.Tags)

	p.Title = title
	p.Slug = newSlug
	p.Content = req.Content
	p.Excerpt = s.strip.Sanitize(strings.TrimSpace(req.Excerpt))
	p.CoverImage = req.CoverImage
	p.Published = req.Published
	p.Featured = req.Featured
	p.Category = strings.TrimSpace(req.Category)
	p.Tags = tags

	if err := s.repo.Update(ctx, p); err != nil {
		log.Error("Ошибка обновления поста (repo)", zap.Int64("id", p.ID), zap.Error(err))
		return nil, err
	}

	if err := s.tags.SyncPostTags(ctx, actingUserID, p.ID, tags); err != nil {
		log.Error("Ошибка синхронизации тегов после обновления", zap.Int64("post_id", p.ID), zap.Error(err))
		return nil, err
	}

	log.Info("Пост обновлён", zap.Int64("id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

// Delete удаляет пост по слагу, предварительно сняв связки тегов,
// чтобы post_count не разъехался.
func (s *PostService) Delete(ctx context.Context, actingUserID int, slug string) error {
	log := logger.WithCtx(ctx)

	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("пост %q: %w", slug, ErrNotFound)
		}
		return err
	}

	if err := s.tags.ClearPostTags(ctx, actingUserID, p.ID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.ID); err != nil {
		log.Error("Ошибка удаления поста (repo)", zap.Int64("id", p.ID), zap.Error(err))
		return err
	}

	log.Info("Пост удалён", zap.Int64("id", p.ID), zap.String("slug", slug))
	return nil
}

// List — фильтрованный постраничный список.
func (s *PostService) List(ctx context.Context, f models.PostFilter, page int) (*models.PostList, error) {
	log := logger.WithCtx(ctx)

	if f.Limit <= 0 || f.Limit > 50 {
		f.Limit = 10
	}
	if page <= 0 {
		page = 1
	}
	f.Offset = (page - 1) * f.Limit

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		log.Error("Ошибка получения списка постов (repo)", zap.Error(err))
		return nil, err
	}

	return &models.PostList{Items: items, Total: total, Page: page, Limit: f.Limit}, nil
}

// GetBySlug возвращает пост; на публичном чтении счётчик просмотров
// двигается атомарным UPDATE, без read-modify-write.
func (s *PostService) GetBySlug(ctx context.Context, slug string, countView bool) (*models.Post, error) {
	log := logger.WithCtx(ctx)

	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пост %q: %w", slug, ErrNotFound)
		}
		return nil, err
	}

	if countView && p.Published {
		if err := s.repo.IncrementViewCount(ctx, p.ID); err != nil {
			// просмотр не критичен, пост всё равно отдаём
			log.Warn("Не удалось увеличить счётчик просмотров", zap.Int64("id", p.ID), zap.Error(err))
		} else {
			p.ViewCount++
		}
	}

	return p, nil
}
