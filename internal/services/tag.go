package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/repository"
	"blogtalks/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type TagService struct {
	tags  repository.TagRepo
	posts repository.PostRepo
	users UserDirectory
}

func NewTagService(tags repository.TagRepo, posts repository.PostRepo, users UserDirectory) *TagService {
	return &TagService{tags: tags, posts: posts, users: users}
}

// List — публичный список тегов со счётчиками.
func (s *TagService) List(ctx context.Context) ([]*models.Tag, error) {
	return s.tags.GetAll(ctx)
}

// EnsureTagExists гарантирует тег с таким именем: существует — no-op,
// нет — создаёт, разводя коллизии слагов случайным числовым суффиксом.
func (s *TagService) EnsureTagExists(ctx context.Context, actingUserID int, name string) (*models.Tag, bool, error) {
	if _, err := s.requireAdmin(ctx, actingUserID); err != nil {
		return nil, false, err
	}
	return s.ensureTag(ctx, name)
}

func (s *TagService) ensureTag(ctx context.Context, name string) (*models.Tag, bool, error) {
	log := logger.WithCtx(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("пустое имя тега: %w", ErrValidation)
	}

	// идемпотентность по имени
	existing, err := s.tags.FindByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	// слаг: транслит, для чистых символов/эмодзи — синтетический
	slug := utils.SlugifyOr(name, "tag")

	// два разных имени могут слагифицироваться одинаково —
	// разводим случайным трёхзначным суффиксом
	taken, err := s.tags.SlugExists(ctx, slug, 0)
	if err != nil {
		return nil, false, err
	}
	if taken {
		slug = fmt.Sprintf("%s-%d", slug, 100+rand.Intn(900))
	}

	tag, err := s.tags.Create(ctx, name, slug)
	if err != nil {
		// гонка на уникальном индексе не ретраится
		log.Error("Ошибка создания тега (repo)", zap.String("name", name), zap.Error(err))
		return nil, false, fmt.Errorf("создание тега %q: %w", name, err)
	}

	log.Info("Тег создан", zap.Int("id", tag.ID), zap.String("name", name), zap.String("slug", slug))
	return tag, true, nil
}

// EnsureTagsExist прогоняет ensureTag по всем именам параллельно и
// возвращает поимённые результаты вместо общего булева.
func (s *TagService) EnsureTagsExist(ctx context.Context, actingUserID int, names []string) ([]models.TagEnsureResult, error) {
	if _, err := s.requireAdmin(ctx, actingUserID); err != nil {
		return nil, err
	}

	results := make([]models.TagEnsureResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			tag, created, err := s.ensureTag(gctx, name)
			res := models.TagEnsureResult{Name: name, Created: created}
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Slug = tag.Slug
			}
			results[i] = res
			return nil // частичные сбои не валят остальных
		})
	}
	_ = g.Wait()

	return results, nil
}

// SyncPostTags приводит связки поста к целевому набору имён:
// недостающие теги создаются, лишние связки снимаются, и вторым плечом
// обновляется легаси-массив tags на самом посте.
func (s *TagService) SyncPostTags(ctx context.Context, actingUserID int, postID int64, names []string) error {
	log := logger.WithCtx(ctx)

	if _, err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}

	names = normalizeTagNames(names)

	desired := make(map[int]struct{}, len(names))
	for _, name := range names {
		tag, _, err := s.ensureTag(ctx, name)
		if err != nil {
			return err
		}
		desired[tag.ID] = struct{}{}
	}

	current, err := s.tags.GetPostTagIDs(ctx, postID)
	if err != nil {
		return err
	}
	currentSet := make(map[int]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}

	for id := range desired {
		if _, ok := currentSet[id]; !ok {
			if err := s.tags.LinkPost(ctx, postID, id); err != nil {
				return err
			}
		}
	}
	for _, id := range current {
		if _, ok := desired[id]; !ok {
			if err := s.tags.UnlinkPost(ctx, postID, id); err != nil {
				return err
			}
		}
	}

	if err := s.posts.UpdateLegacyTags(ctx, postID, names); err != nil {
		return err
	}

	log.Info("Теги поста синхронизированы",
		zap.Int64("post_id", postID),
		zap.Int("tags", len(names)),
	)
	return nil
}

// ClearPostTags снимает все связки поста (перед удалением поста).
func (s *TagService) ClearPostTags(ctx context.Context, actingUserID int, postID int64) error {
	if _, err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}
	return s.tags.UnlinkAll(ctx, postID)
}

// UpdateTag переименовывает тег и безусловно пересчитывает слаг,
// с той же проверкой коллизии, что и на создании.
func (s *TagService) UpdateTag(ctx context.Context, actingUserID, id int, newName string) (*models.Tag, error) {
	log := logger.WithCtx(ctx)

	if _, err := s.requireAdmin(ctx, actingUserID); err != nil {
		return nil, err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("пустое имя тега: %w", ErrValidation)
	}

	if _, err := s.tags.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("тег %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	slug := utils.SlugifyOr(newName, "tag")
	taken, err := s.tags.SlugExists(ctx, slug, id)
	if err != nil {
		return nil, err
	}
	if taken {
		slug = fmt.Sprintf("%s-%d", slug, 100+rand.Intn(900))
	}

	if err := s.tags.Update(ctx, id, newName, slug); err != nil {
		log.Error("Ошибка обновления тега (repo)", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("Тег переименован", zap.Int("id", id), zap.String("name", newName), zap.String("slug", slug))
	return s.tags.GetByID(ctx, id)
}

func (s *TagService) DeleteTag(ctx context.Context, actingUserID, id int) error {
	log := logger.WithCtx(ctx)

	if _, err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}

	if _, err := s.tags.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("тег %d: %w", id, ErrNotFound)
		}
		return err
	}

	if err := s.tags.Delete(ctx, id); err != nil {
		log.Error("Ошибка удаления тега (repo)", zap.Int("id", id), zap.Error(err))
		return err
	}

	log.Info("Тег удалён", zap.Int("id", id))
	return nil
}

// requireAdmin перечитывает профиль на каждый мутирующий вызов —
// никакого закэшированного доверия.
func (s *TagService) requireAdmin(ctx context.Context, userID int) (*models.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return user, nil
}

func normalizeTagNames(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
