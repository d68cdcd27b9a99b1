package models

type BlogStats struct {
	TotalPosts     int `json:"total_posts"`
	PublishedPosts int `json:"published_posts"`
	DraftPosts     int `json:"draft_posts"`
	TotalViews     int `json:"total_views"`

	TotalUsers int `json:"total_users"`
	Admins     int `json:"admins"`

	TotalComments    int `json:"total_comments"`
	PendingComments  int `json:"pending_comments"`
	ApprovedComments int `json:"approved_comments"`

	TagsCount int `json:"tags_count"`

	TopPosts []*PostViewStat `json:"top_posts"`
}

type PostViewStat struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	ViewCount int    `json:"view_count"`
}
