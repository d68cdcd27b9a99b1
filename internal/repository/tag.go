package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blogtalks/internal/models"
)

type TagRepo interface {
	GetAll(ctx context.Context) ([]*models.Tag, error)
	GetByID(ctx context.Context, id int) (*models.Tag, error)
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	SlugExists(ctx context.Context, slug string, excludeID int) (bool, error)
	Create(ctx context.Context, name, slug string) (*models.Tag, error)
	Update(ctx context.Context, id int, name, slug string) error
	Delete(ctx context.Context, id int) error
	GetPostTagIDs(ctx context.Context, postID int64) ([]int, error)
	LinkPost(ctx context.Context, postID int64, tagID int) error
	UnlinkPost(ctx context.Context, postID int64, tagID int) error
	UnlinkAll(ctx context.Context, postID int64) error
}

type tagRepo struct{ db *pgxpool.Pool }

func NewTagRepo(db *pgxpool.Pool) TagRepo { return &tagRepo{db: db} }

const tagColumns = `id, name, slug, post_count, created_at, updated_at`

func (r *tagRepo) GetAll(ctx context.Context) ([]*models.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY post_count DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *tagRepo) GetByID(ctx context.Context, id int) (*models.Tag, error) {
	var t models.Tag
	err := r.db.QueryRow(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id=$1`, id,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByName возвращает (nil, nil), если тега с таким именем нет.
func (r *tagRepo) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	err := r.db.QueryRow(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name=$1`, name,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepo) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tags WHERE slug=$1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *tagRepo) Create(ctx context.Context, name, slug string) (*models.Tag, error) {
	var t models.Tag
	err := r.db.QueryRow(ctx,
		`INSERT INTO tags (name, slug) VALUES ($1,$2) RETURNING `+tagColumns,
		name, slug,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepo) Update(ctx context.Context, id int, name, slug string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE tags SET name=$1, slug=$2, updated_at=NOW() WHERE id=$3`,
		name, slug, id,
	)
	return err
}

func (r *tagRepo) Delete(ctx context.Context, id int) error {
	// связки чистит каскад на post_tags
	_, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id=$1`, id)
	return err
}

func (r *tagRepo) GetPostTagIDs(ctx context.Context, postID int64) ([]int, error) {
	rows, err := r.db.Query(ctx, `SELECT tag_id FROM post_tags WHERE post_id=$1`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LinkPost создаёт связку и атомарно двигает счётчик post_count.
// Повторная связка — no-op, счётчик не трогается.
func (r *tagRepo) LinkPost(ctx context.Context, postID int64, tagID int) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO post_tags (post_id, tag_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		postID, tagID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = r.db.Exec(ctx, `UPDATE tags SET post_count = post_count + 1 WHERE id=$1`, tagID)
	return err
}

func (r *tagRepo) UnlinkPost(ctx context.Context, postID int64, tagID int) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM post_tags WHERE post_id=$1 AND tag_id=$2`, postID, tagID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = r.db.Exec(ctx,
		`UPDATE tags SET post_count = GREATEST(post_count - 1, 0) WHERE id=$1`, tagID)
	return err
}

func (r *tagRepo) UnlinkAll(ctx context.Context, postID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tags SET post_count = GREATEST(post_count - 1, 0)
		WHERE id IN (SELECT tag_id FROM post_tags WHERE post_id=$1)`, postID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `DELETE FROM post_tags WHERE post_id=$1`, postID)
	return err
}
