package models

import "time"

type Tag struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int       `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostTag — строка связки многие-ко-многим.
type PostTag struct {
	PostID int64 `json:"post_id"`
	TagID  int   `json:"tag_id"`
}

// swagger:model EnsureTagsRequest
type EnsureTagsRequest struct {
	Names []string `json:"names" example:"go,базы данных"`
}

// TagEnsureResult — поимённый итог bulk-создания тегов,
// вместо непрозрачного общего «успех/неуспех».
type TagEnsureResult struct {
	Name    string `json:"name"`
	Slug    string `json:"slug,omitempty"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}
