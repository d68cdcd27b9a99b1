package models

import "time"

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int       `json:"user_id"`
	ParentID  *int64    `json:"parent_id,omitempty"` // null — комментарий верхнего уровня
	Content   string    `json:"content"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentWithAuthor — плоская строка из БД вместе с публичным профилем автора.
type CommentWithAuthor struct {
	Comment
	Author AuthorInfo `json:"profiles"`
}

// CommentNode — узел дерева ответов. Не хранится, собирается на чтении.
type CommentNode struct {
	CommentWithAuthor
	ReplyCount    int            `json:"reply_count"` // только прямые ответы
	ParentRemoved bool           `json:"parent_removed,omitempty"`
	Replies       []*CommentNode `json:"replies,omitempty"`
}

// swagger:model SubmitCommentRequest
type SubmitCommentRequest struct {
	PostID   int64  `json:"post_id"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Content  string `json:"content" example:"Отличная статья!"`
}

// CommentThread — ответ публичной ручки: дерево плюс общий счётчик для шапки.
type CommentThread struct {
	Comments []*CommentNode `json:"comments"`
	Total    int            `json:"total"`
}
