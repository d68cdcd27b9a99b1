package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"blogtalks/internal/models"
)

type PostRepo interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, f models.PostFilter) ([]*models.Post, int, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	IncrementViewCount(ctx context.Context, id int64) error
	UpdateLegacyTags(ctx context.Context, id int64, tags []string) error
}

type postRepo struct{ db *pgxpool.Pool }

func NewPostRepo(db *pgxpool.Pool) PostRepo { return &postRepo{db: db} }

const postColumns = `id, author_id, title, slug, content, excerpt, cover_image, published, featured, category, view_count, created_at, updated_at, tags`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var tagsRaw []byte
	if err := row.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Content, &p.Excerpt,
		&p.CoverImage, &p.Published, &p.Featured, &p.Category,
		&p.ViewCount, &p.CreatedAt, &p.UpdatedAt, &tagsRaw,
	); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(tagsRaw, &p.Tags)
	return &p, nil
}

func (r *postRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	tagsJSON, _ := json.Marshal(p.Tags)

	const q = `
		INSERT INTO posts (author_id, title, slug, content, excerpt, cover_image, published, featured, category, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb)
		RETURNING ` + postColumns

	return scanPost(r.db.QueryRow(ctx, q,
		p.AuthorID, p.Title, p.Slug, p.Content, p.Excerpt,
		p.CoverImage, p.Published, p.Featured, p.Category, tagsJSON,
	))
}

func (r *postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return scanPost(r.db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id=$1`, id))
}

func (r *postRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return scanPost(r.db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug=$1`, slug))
}

func (r *postRepo) List(ctx context.Context, f models.PostFilter) ([]*models.Post, int, error) {
	where := []string{}
	args := []interface{}{}
	i := 1

	if f.Published != nil {
		where = append(where, fmt.Sprintf("published = $%d", i))
		args = append(args, *f.Published)
		i++
	}
	if f.Featured != nil {
		where = append(where, fmt.Sprintf("featured = $%d", i))
		args = append(args, *f.Featured)
		i++
	}
	if f.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", i))
		args = append(args, f.Category)
		i++
	}
	if f.Tag != "" {
		// фильтруем по связке post_tags, а не по легаси-массиву
		where = append(where, fmt.Sprintf(`
			EXISTS (
				SELECT 1 FROM post_tags pt
				JOIN tags t ON t.id = pt.tag_id
				WHERE pt.post_id = posts.id AND (t.slug = $%d OR t.name = $%d)
			)
		`, i, i))
		args = append(args, f.Tag)
		i++
	}
	if f.Search != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", i, i))
		args = append(args, "%"+f.Search+"%")
		i++
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + postColumns + ` FROM posts` + cond +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *postRepo) Update(ctx context.Context, p *models.Post) error {
	tagsJSON, _ := json.Marshal(p.Tags)
	const q = `
		UPDATE posts
		SET title=$1,
		    slug=$2,
		    content=$3,
		    excerpt=$4,
		    cover_image=$5,
		    published=$6,
		    featured=$7,
		    category=$8,
		    tags=$9::jsonb,
		    updated_at=NOW()
		WHERE id=$10
	`
	_, err := r.db.Exec(ctx, q,
		p.Title, p.Slug, p.Content, p.Excerpt, p.CoverImage,
		p.Published, p.Featured, p.Category, tagsJSON, p.ID,
	)
	return err
}

func (r *postRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	return err
}

func (r *postRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE slug=$1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// IncrementViewCount — атомарный инкремент, без read-modify-write:
// одновременные просмотры не теряют обновления.
func (r *postRepo) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id=$1`, id)
	return err
}

// UpdateLegacyTags обновляет денормализованный массив тегов на самом посте,
// вторым плечом после синхронизации post_tags.
func (r *postRepo) UpdateLegacyTags(ctx context.Context, id int64, tags []string) error {
	tagsJSON, _ := json.Marshal(tags)
	_, err := r.db.Exec(ctx, `UPDATE posts SET tags=$1::jsonb, updated_at=NOW() WHERE id=$2`, tagsJSON, id)
	return err
}
