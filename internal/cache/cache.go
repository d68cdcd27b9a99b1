// Package cache хранит собранные деревья комментариев в Redis,
// чтобы публичное чтение не пересобирало дерево на каждый запрос.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const commentTTL = 5 * time.Minute

type CommentCache struct {
	client *redis.Client
	prefix string
}

// NewCommentCache подключается к Redis. Пустой addr — кэш выключен,
// все методы становятся no-op (nil-ресивер безопасен).
func NewCommentCache(addr, password string) (*CommentCache, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &CommentCache{client: client, prefix: "comments:"}, nil
}

// NewCommentCacheWithClient — для тестов с miniredis.
func NewCommentCacheWithClient(client *redis.Client) *CommentCache {
	return &CommentCache{client: client, prefix: "comments:"}
}

func (c *CommentCache) key(postID int64) string {
	return fmt.Sprintf("%spost:%d", c.prefix, postID)
}

// GetThread возвращает сериализованное дерево или (nil, false) при промахе.
func (c *CommentCache) GetThread(ctx context.Context, postID int64) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(postID)).Bytes()
	if err != nil {
		// промах или недоступный Redis — читаем из БД
		return nil, false
	}
	return raw, true
}

func (c *CommentCache) SetThread(ctx context.Context, postID int64, raw []byte) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, c.key(postID), raw, commentTTL).Err()
}

// InvalidatePost сбрасывает кэш треда — вызывается на каждой мутации комментариев.
func (c *CommentCache) InvalidatePost(ctx context.Context, postID int64) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, c.key(postID)).Err()
}
