package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"blogtalks/internal/models"
)

type StatsRepo struct {
	db *pgxpool.Pool
}

func NewStatsRepo(db *pgxpool.Pool) *StatsRepo { return &StatsRepo{db: db} }

// GetBlogStats собирает агрегаты для админской панели одним заходом.
func (r *StatsRepo) GetBlogStats(ctx context.Context, topN int) (*models.BlogStats, error) {
	var s models.BlogStats

	const q = `
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM posts WHERE published = true),
			(SELECT COALESCE(SUM(view_count), 0) FROM posts),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'admin'),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM comments WHERE approved = false),
			(SELECT COUNT(*) FROM tags)
	`
	if err := r.db.QueryRow(ctx, q).Scan(
		&s.TotalPosts, &s.PublishedPosts, &s.TotalViews,
		&s.TotalUsers, &s.Admins,
		&s.TotalComments, &s.PendingComments, &s.TagsCount,
	); err != nil {
		return nil, err
	}

	s.DraftPosts = s.TotalPosts - s.PublishedPosts
	s.ApprovedComments = s.TotalComments - s.PendingComments

	rows, err := r.db.Query(ctx,
		`SELECT id, title, slug, view_count FROM posts
		 WHERE published = true
		 ORDER BY view_count DESC, id LIMIT $1`, topN)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PostViewStat
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.ViewCount); err != nil {
			return nil, err
		}
		s.TopPosts = append(s.TopPosts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}
