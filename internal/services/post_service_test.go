package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"blogtalks/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий постов (заглушка), общий для тестов постов, тегов и комментариев.
type mockPostRepo struct {
	mu         sync.Mutex
	posts      map[int64]*models.Post
	legacyTags map[int64][]string
	viewBumps  []int64
	nextID     int64
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{
		posts:      make(map[int64]*models.Post),
		legacyTags: make(map[int64][]string),
	}
}

func (m *mockPostRepo) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	m.posts[cp.ID] = &cp
	return &cp, nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPostRepo) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockPostRepo) List(_ context.Context, f models.PostFilter) ([]*models.Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if f.Published != nil && p.Published != *f.Published {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockPostRepo) Update(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *mockPostRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPostRepo) IncrementViewCount(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.ViewCount++
	m.viewBumps = append(m.viewBumps, id)
	return nil
}

func (m *mockPostRepo) UpdateLegacyTags(_ context.Context, id int64, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacyTags[id] = tags
	return nil
}

// Мок-каталог пользователей.
type mockUsers struct {
	users map[int]*models.User
}

func (m *mockUsers) GetUserByID(_ context.Context, id int) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func adminDirectory() *mockUsers {
	return &mockUsers{users: map[int]*models.User{
		1: {ID: 1, Username: "admin", Role: "admin", DisplayName: "Админ"},
		2: {ID: 2, Username: "reader", Role: "user", DisplayName: "Читатель"},
	}}
}

func newTestPostService(posts *mockPostRepo, tags *mockTagRepo) *PostService {
	tagSvc := NewTagService(tags, posts, adminDirectory())
	return NewPostService(posts, tagSvc)
}

func TestCreatePost_SlugFromTitle(t *testing.T) {
	posts := newMockPostRepo()
	svc := newTestPostService(posts, newMockTagRepo())

	created, err := svc.Create(context.Background(), 1, models.SavePostRequest{
		Title:     "Как мы переехали на pgx",
		Content:   "текст",
		Published: true,
		Tags:      []string{"Go", "postgres", "go"},
	})
	if err != nil {
		t.Fatalf("ошибка создания поста: %v", err)
	}

	if created.Slug != "kak-my-pereehali-na-pgx" {
		t.Errorf("неожиданный слаг: %q", created.Slug)
	}
	// теги нормализуются: нижний регистр, без дублей
	if len(created.Tags) != 2 {
		t.Errorf("ожидалось 2 тега после нормализации, получено %v", created.Tags)
	}
	if got := posts.legacyTags[created.ID]; len(got) != 2 {
		t.Errorf("легаси-массив не обновлён: %v", got)
	}
}

func TestCreatePost_SlugConflict(t *testing.T) {
	posts := newMockPostRepo()
	svc := newTestPostService(posts, newMockTagRepo())

	req := models.SavePostRequest{Title: "Один заголовок", Content: "текст"}
	if _, err := svc.Create(context.Background(), 1, req); err != nil {
		t.Fatalf("первый пост должен создаться: %v", err)
	}

	_, err := svc.Create(context.Background(), 1, req)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("ожидался ErrConflict на повторном слаге, получено %v", err)
	}
}

func TestCreatePost_TitleValidation(t *testing.T) {
	svc := newTestPostService(newMockPostRepo(), newMockTagRepo())

	_, err := svc.Create(context.Background(), 1, models.SavePostRequest{Title: "ab", Content: "текст"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидался ErrValidation на коротком заголовке, получено %v", err)
	}

	_, err = svc.Create(context.Background(), 1, models.SavePostRequest{Title: "Нормальный заголовок", Content: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидался ErrValidation на пустом контенте, получено %v", err)
	}
}

func TestGetBySlug_CountsViewOnPublished(t *testing.T) {
	posts := newMockPostRepo()
	svc := newTestPostService(posts, newMockTagRepo())

	created, err := svc.Create(context.Background(), 1, models.SavePostRequest{
		Title: "Публичный пост", Content: "текст", Published: true,
	})
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	got, err := svc.GetBySlug(context.Background(), created.Slug, true)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if got.ViewCount != 1 {
		t.Errorf("счётчик просмотров не сдвинулся: %d", got.ViewCount)
	}
	if len(posts.viewBumps) != 1 {
		t.Errorf("ожидался один атомарный инкремент, получено %d", len(posts.viewBumps))
	}
}

func TestGetBySlug_DraftNotCounted(t *testing.T) {
	posts := newMockPostRepo()
	svc := newTestPostService(posts, newMockTagRepo())

	created, err := svc.Create(context.Background(), 1, models.SavePostRequest{
		Title: "Черновик", Content: "текст", Published: false,
	})
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	if _, err := svc.GetBySlug(context.Background(), created.Slug, true); err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if len(posts.viewBumps) != 0 {
		t.Error("просмотры черновика не должны считаться")
	}
}

func TestDeletePost_ClearsTagLinks(t *testing.T) {
	posts := newMockPostRepo()
	tags := newMockTagRepo()
	svc := newTestPostService(posts, tags)

	created, err := svc.Create(context.Background(), 1, models.SavePostRequest{
		Title: "Пост с тегами", Content: "текст", Tags: []string{"go"},
	})
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	if len(tags.links[created.ID]) != 1 {
		t.Fatalf("связка тега не создана: %v", tags.links)
	}

	if err := svc.Delete(context.Background(), 1, created.Slug); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if len(tags.links[created.ID]) != 0 {
		t.Error("связки тегов должны сниматься при удалении поста")
	}
}
