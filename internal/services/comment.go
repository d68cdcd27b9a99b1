package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"blogtalks/internal/cache"
	"blogtalks/internal/logger"
	"blogtalks/internal/models"
	"blogtalks/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type CommentService struct {
	comments repository.CommentRepo
	posts    repository.PostRepo
	users    UserDirectory
	cache    *cache.CommentCache
	policy   *bluemonday.Policy
}

func NewCommentService(
	comments repository.CommentRepo,
	posts repository.PostRepo,
	users UserDirectory,
	commentCache *cache.CommentCache,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		cache:    commentCache,
		policy:   bluemonday.UGCPolicy(),
	}
}

// BuildCommentTree собирает лес ответов из плоского списка (created_at DESC).
// Чистая и тотальная функция: порядок сохраняется, каждый валидный
// комментарий попадает ровно в одну позицию. Комментарий, чей родитель
// отсутствует во входе (не одобрен или удалён), поднимается в корень
// с пометкой ParentRemoved — молча ничего не теряем.
func BuildCommentTree(flat []models.CommentWithAuthor) []*models.CommentNode {
	nodes := make(map[int64]*models.CommentNode, len(flat))
	for i := range flat {
		nodes[flat[i].ID] = &models.CommentNode{CommentWithAuthor: flat[i]}
	}

	var roots []*models.CommentNode
	for i := range flat {
		node := nodes[flat[i].ID]

		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		// ссылка на самого себя — вне контракта, поднимаем в корень
		if *node.ParentID == node.ID {
			node.ParentRemoved = true
			roots = append(roots, node)
			continue
		}

		parent, ok := nodes[*node.ParentID]
		if !ok {
			node.ParentRemoved = true
			roots = append(roots, node)
			continue
		}

		parent.Replies = append(parent.Replies, node)
		parent.ReplyCount++ // только прямые ответы
	}

	return roots
}

// CountComments считает все узлы леса, включая вложенные — счётчик для шапки.
func CountComments(nodes []*models.CommentNode) int {
	total := 0
	for _, n := range nodes {
		total += 1 + CountComments(n.Replies)
	}
	return total
}

// GetThread отдаёт дерево комментариев поста. Не-админ видит только
// одобренные; для него же работает кэш.
func (s *CommentService) GetThread(ctx context.Context, postID int64, isAdmin bool) (*models.CommentThread, error) {
	log := logger.WithCtx(ctx)

	if !isAdmin {
		if raw, ok := s.cache.GetThread(ctx, postID); ok {
			var thread models.CommentThread
			if err := json.Unmarshal(raw, &thread); err == nil {
				log.Debug("Комментарии отданы из кэша", zap.Int64("post_id", postID))
				return &thread, nil
			}
		}
	}

	flat, err := s.comments.ListByPost(ctx, postID, !isAdmin)
	if err != nil {
		log.Error("Ошибка получения комментариев (repo)", zap.Int64("post_id", postID), zap.Error(err))
		return nil, err
	}

	thread := &models.CommentThread{
		Comments: BuildCommentTree(flat),
		Total:    len(flat),
	}

	if !isAdmin {
		if raw, err := json.Marshal(thread); err == nil {
			s.cache.SetThread(ctx, postID, raw)
		}
	}

	log.Debug("Дерево комментариев собрано",
		zap.Int64("post_id", postID),
		zap.Int("total", thread.Total),
		zap.Int("roots", len(thread.Comments)),
	)
	return thread, nil
}

// Submit создаёт комментарий. Комментарий админа одобряется сразу,
// остальные уходят в очередь модерации.
func (s *CommentService) Submit(ctx context.Context, userID int, req models.SubmitCommentRequest) (*models.Comment, error) {
	log := logger.WithCtx(ctx)

	if userID <= 0 {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("Submit: не удалось разрешить профиль", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	content := strings.TrimSpace(s.policy.Sanitize(req.Content))
	if content == "" {
		return nil, fmt.Errorf("пустой комментарий: %w", ErrValidation)
	}

	if _, err := s.posts.GetByID(ctx, req.PostID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пост %d: %w", req.PostID, ErrNotFound)
		}
		return nil, err
	}

	// родитель обязан существовать и принадлежать тому же посту
	if req.ParentID != nil {
		ok, err := s.comments.ExistsOnPost(ctx, *req.ParentID, req.PostID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("родительский комментарий не найден на этом посте: %w", ErrValidation)
		}
	}

	c := &models.Comment{
		PostID:   req.PostID,
		UserID:   userID,
		ParentID: req.ParentID,
		Content:  content,
		Approved: user.IsAdmin(),
	}

	created, err := s.comments.Create(ctx, c)
	if err != nil {
		log.Error("Ошибка создания комментария (repo)", zap.Error(err))
		return nil, err
	}

	s.cache.InvalidatePost(ctx, req.PostID)

	log.Info("Комментарий создан",
		zap.Int64("id", created.ID),
		zap.Int64("post_id", created.PostID),
		zap.Bool("approved", created.Approved),
	)
	return created, nil
}

// Approve — переход pending → approved, только для админа.
func (s *CommentService) Approve(ctx context.Context, actingUserID int, commentID int64) error {
	log := logger.WithCtx(ctx)

	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}

	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("комментарий %d: %w", commentID, ErrNotFound)
		}
		return err
	}

	ok, err := s.comments.Approve(ctx, commentID)
	if err != nil {
		log.Error("Ошибка одобрения комментария (repo)", zap.Int64("id", commentID), zap.Error(err))
		return err
	}
	if !ok {
		return fmt.Errorf("комментарий %d: %w", commentID, ErrNotFound)
	}

	s.cache.InvalidatePost(ctx, c.PostID)

	log.Info("Комментарий одобрен", zap.Int64("id", commentID), zap.Int64("post_id", c.PostID))
	return nil
}

// Delete удаляет комментарий вместе со всем поддеревом ответов.
func (s *CommentService) Delete(ctx context.Context, actingUserID int, commentID int64) error {
	log := logger.WithCtx(ctx)

	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}

	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("комментарий %d: %w", commentID, ErrNotFound)
		}
		return err
	}

	deleted, err := s.comments.DeleteTree(ctx, commentID)
	if err != nil {
		log.Error("Ошибка удаления комментария (repo)", zap.Int64("id", commentID), zap.Error(err))
		return err
	}

	s.cache.InvalidatePost(ctx, c.PostID)

	log.Info("Комментарий удалён с поддеревом",
		zap.Int64("id", commentID),
		zap.Int("deleted", deleted),
	)
	return nil
}

// ModerationQueue — админский список: pending | approved | all.
func (s *CommentService) ModerationQueue(ctx context.Context, actingUserID int, status string, limit, offset int) ([]models.CommentWithAuthor, int, error) {
	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return nil, 0, err
	}

	switch status {
	case "pending", "approved", "all", "":
	default:
		return nil, 0, fmt.Errorf("неизвестный статус %q: %w", status, ErrValidation)
	}

	return s.comments.ListModeration(ctx, status, limit, offset)
}

func (s *CommentService) requireAdmin(ctx context.Context, userID int) error {
	if userID <= 0 {
		return ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
