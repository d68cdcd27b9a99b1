package models

import "time"

type Post struct {
	ID         int64     `json:"id"`
	AuthorID   *int      `json:"author_id,omitempty"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt"`
	CoverImage string    `json:"cover_image,omitempty"`
	Published  bool      `json:"published"`
	Featured   bool      `json:"featured"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags"` // легаси-массив, дублирует связку post_tags
	ViewCount  int       `json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// swagger:model SavePostRequest
type SavePostRequest struct {
	Title      string   `json:"title"       example:"Как мы переехали на pgx"`
	Content    string   `json:"content"     example:"# Заголовок\nтекст в markdown"`
	Excerpt    string   `json:"excerpt"     example:"Короткое описание для превью"`
	CoverImage string   `json:"cover_image"`
	Category   string   `json:"category"    example:"backend"`
	Tags       []string `json:"tags"        example:"go,postgres"`
	Published  bool     `json:"published"`
	Featured   bool     `json:"featured"`
}

type PostFilter struct {
	Tag       string
	Category  string
	Search    string
	Featured  *bool
	Published *bool
	Limit     int
	Offset    int
}

type PostList struct {
	Items []*Post `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
