package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"blogtalks/internal/models"
)

type CommentRepo interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int64, onlyApproved bool) ([]models.CommentWithAuthor, error)
	ListModeration(ctx context.Context, status string, limit, offset int) ([]models.CommentWithAuthor, int, error)
	Approve(ctx context.Context, id int64) (bool, error)
	DeleteTree(ctx context.Context, id int64) (int, error)
	ExistsOnPost(ctx context.Context, id, postID int64) (bool, error)
}

type commentRepo struct{ db *pgxpool.Pool }

func NewCommentRepo(db *pgxpool.Pool) CommentRepo { return &commentRepo{db: db} }

func (r *commentRepo) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	const q = `
		INSERT INTO comments (post_id, user_id, parent_id, content, approved)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, post_id, user_id, parent_id, content, approved, created_at
	`
	var out models.Comment
	err := r.db.QueryRow(ctx, q,
		c.PostID, c.UserID, c.ParentID, c.Content, c.Approved,
	).Scan(&out.ID, &out.PostID, &out.UserID, &out.ParentID, &out.Content, &out.Approved, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRow(ctx,
		`SELECT id, post_id, user_id, parent_id, content, approved, created_at
		 FROM comments WHERE id=$1`, id,
	).Scan(&c.ID, &c.PostID, &c.UserID, &c.ParentID, &c.Content, &c.Approved, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const commentAuthorColumns = `
	c.id, c.post_id, c.user_id, c.parent_id, c.content, c.approved, c.created_at,
	u.id, COALESCE(NULLIF(u.display_name, ''), u.username), u.avatar_url
`

func scanCommentWithAuthor(row interface{ Scan(...any) error }) (models.CommentWithAuthor, error) {
	var c models.CommentWithAuthor
	err := row.Scan(
		&c.ID, &c.PostID, &c.UserID, &c.ParentID, &c.Content, &c.Approved, &c.CreatedAt,
		&c.Author.ID, &c.Author.DisplayName, &c.Author.AvatarURL,
	)
	return c, err
}

// ListByPost отдаёт плоский список (created_at DESC), дерево собирает сервис.
func (r *commentRepo) ListByPost(ctx context.Context, postID int64, onlyApproved bool) ([]models.CommentWithAuthor, error) {
	q := `SELECT ` + commentAuthorColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1`
	if onlyApproved {
		q += ` AND c.approved = true`
	}
	q += ` ORDER BY c.created_at DESC`

	rows, err := r.db.Query(ctx, q, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CommentWithAuthor
	for rows.Next() {
		c, err := scanCommentWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListModeration — очередь модерации: pending | approved | all.
func (r *commentRepo) ListModeration(ctx context.Context, status string, limit, offset int) ([]models.CommentWithAuthor, int, error) {
	cond := ""
	switch status {
	case "pending":
		cond = " WHERE c.approved = false"
	case "approved":
		cond = " WHERE c.approved = true"
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments c`+cond,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s
		FROM comments c
		JOIN users u ON u.id = c.user_id
		%s
		ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`, commentAuthorColumns, cond)

	rows, err := r.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.CommentWithAuthor
	for rows.Next() {
		c, err := scanCommentWithAuthor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *commentRepo) Approve(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE comments SET approved = true WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteTree удаляет комментарий вместе со всем поддеревом ответов.
func (r *commentRepo) DeleteTree(ctx context.Context, id int64) (int, error) {
	const q = `
		WITH RECURSIVE tree AS (
			SELECT id FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id FROM comments c JOIN tree t ON c.parent_id = t.id
		)
		DELETE FROM comments WHERE id IN (SELECT id FROM tree)
	`
	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *commentRepo) ExistsOnPost(ctx context.Context, id, postID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM comments WHERE id=$1 AND post_id=$2)`,
		id, postID,
	).Scan(&exists)
	return exists, err
}
