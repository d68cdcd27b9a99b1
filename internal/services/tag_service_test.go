package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"blogtalks/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий тегов; мьютекс нужен из-за параллельного bulk-создания.
type mockTagRepo struct {
	mu     sync.Mutex
	tags   map[int]*models.Tag
	links  map[int64]map[int]bool
	nextID int
}

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{
		tags:  make(map[int]*models.Tag),
		links: make(map[int64]map[int]bool),
	}
}

func (m *mockTagRepo) seed(name, slug string) *models.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := &models.Tag{ID: m.nextID, Name: name, Slug: slug}
	m.tags[t.ID] = t
	return t
}

func (m *mockTagRepo) GetAll(_ context.Context) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTagRepo) GetByID(_ context.Context, id int) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockTagRepo) FindByName(_ context.Context, name string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTagRepo) SlugExists(_ context.Context, slug string, excludeID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if t.Slug == slug && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTagRepo) Create(_ context.Context, name, slug string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := &models.Tag{ID: m.nextID, Name: name, Slug: slug}
	m.tags[t.ID] = t
	return t, nil
}

func (m *mockTagRepo) Update(_ context.Context, id int, name, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Name, t.Slug = name, slug
	return nil
}

func (m *mockTagRepo) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tags, id)
	return nil
}

func (m *mockTagRepo) GetPostTagIDs(_ context.Context, postID int64) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for id := range m.links[postID] {
		out = append(out, id)
	}
	return out, nil
}

func (m *mockTagRepo) LinkPost(_ context.Context, postID int64, tagID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[postID] == nil {
		m.links[postID] = make(map[int]bool)
	}
	if !m.links[postID][tagID] {
		m.links[postID][tagID] = true
		if t, ok := m.tags[tagID]; ok {
			t.PostCount++
		}
	}
	return nil
}

func (m *mockTagRepo) UnlinkPost(_ context.Context, postID int64, tagID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[postID][tagID] {
		delete(m.links[postID], tagID)
		if t, ok := m.tags[tagID]; ok && t.PostCount > 0 {
			t.PostCount--
		}
	}
	return nil
}

func (m *mockTagRepo) UnlinkAll(_ context.Context, postID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tagID := range m.links[postID] {
		delete(m.links[postID], tagID)
		if t, ok := m.tags[tagID]; ok && t.PostCount > 0 {
			t.PostCount--
		}
	}
	return nil
}

func newTestTagService(tags *mockTagRepo, posts *mockPostRepo) *TagService {
	return NewTagService(tags, posts, adminDirectory())
}

func TestEnsureTag_IdempotentByName(t *testing.T) {
	repo := newMockTagRepo()
	svc := newTestTagService(repo, newMockPostRepo())

	first, created, err := svc.EnsureTagExists(context.Background(), 1, "golang")
	if err != nil || !created {
		t.Fatalf("первый вызов должен создать тег: created=%v err=%v", created, err)
	}

	second, created, err := svc.EnsureTagExists(context.Background(), 1, "golang")
	if err != nil {
		t.Fatalf("повторный вызов не должен падать: %v", err)
	}
	if created {
		t.Error("повторный вызов не должен создавать новый тег")
	}
	if second.ID != first.ID {
		t.Errorf("ожидался тот же тег: %d != %d", second.ID, first.ID)
	}
}

func TestEnsureTag_SlugCollisionSuffix(t *testing.T) {
	repo := newMockTagRepo()
	repo.seed("golang!", "golang")
	svc := newTestTagService(repo, newMockPostRepo())

	tag, created, err := svc.EnsureTagExists(context.Background(), 1, "golang")
	if err != nil || !created {
		t.Fatalf("тег с новым именем должен создаться: created=%v err=%v", created, err)
	}

	// коллизия слагов разводится случайным трёхзначным суффиксом
	if ok, _ := regexp.MatchString(`^golang-\d{3}$`, tag.Slug); !ok {
		t.Errorf("ожидался слаг вида golang-NNN, получено %q", tag.Slug)
	}
}

func TestEnsureTag_SyntheticSlug(t *testing.T) {
	svc := newTestTagService(newMockTagRepo(), newMockPostRepo())

	tag, created, err := svc.EnsureTagExists(context.Background(), 1, "🔥🚀")
	if err != nil || !created {
		t.Fatalf("символьное имя должно получить синтетический слаг: created=%v err=%v", created, err)
	}
	if !strings.HasPrefix(tag.Slug, "tag-") {
		t.Errorf("ожидался синтетический слаг с префиксом tag-, получено %q", tag.Slug)
	}
}

func TestEnsureTag_EmptyName(t *testing.T) {
	svc := newTestTagService(newMockTagRepo(), newMockPostRepo())

	_, _, err := svc.EnsureTagExists(context.Background(), 1, "   ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидался ErrValidation на пустом имени, получено %v", err)
	}
}

func TestEnsureTagExists_NonAdminForbidden(t *testing.T) {
	svc := newTestTagService(newMockTagRepo(), newMockPostRepo())

	_, _, err := svc.EnsureTagExists(context.Background(), 2, "golang")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("ожидался ErrForbidden для не-админа, получено %v", err)
	}

	_, _, err = svc.EnsureTagExists(context.Background(), 0, "golang")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("ожидался ErrUnauthenticated без пользователя, получено %v", err)
	}
}

func TestEnsureTagsExist_PartialFailure(t *testing.T) {
	svc := newTestTagService(newMockTagRepo(), newMockPostRepo())

	results, err := svc.EnsureTagsExist(context.Background(), 1, []string{"go", "   ", "postgres"})
	if err != nil {
		t.Fatalf("частичные сбои не должны ронять вызов: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("ожидалось 3 поимённых результата, получено %d", len(results))
	}

	if !results[0].Created || results[0].Error != "" {
		t.Errorf("go должен создаться: %+v", results[0])
	}
	if results[1].Error == "" || results[1].Created {
		t.Errorf("пустое имя должно вернуть ошибку по месту: %+v", results[1])
	}
	if !results[2].Created || results[2].Error != "" {
		t.Errorf("postgres должен создаться несмотря на сбой соседа: %+v", results[2])
	}
}

func TestSyncPostTags_DiffAndLegacyArray(t *testing.T) {
	tags := newMockTagRepo()
	posts := newMockPostRepo()
	svc := newTestTagService(tags, posts)

	const postID = int64(7)

	if err := svc.SyncPostTags(context.Background(), 1, postID, []string{"go", "postgres"}); err != nil {
		t.Fatalf("первая синхронизация: %v", err)
	}
	if len(tags.links[postID]) != 2 {
		t.Fatalf("ожидалось 2 связки, получено %d", len(tags.links[postID]))
	}

	// postgres уходит, redis приходит
	if err := svc.SyncPostTags(context.Background(), 1, postID, []string{"go", "redis"}); err != nil {
		t.Fatalf("вторая синхронизация: %v", err)
	}
	if len(tags.links[postID]) != 2 {
		t.Fatalf("после диффа ожидалось 2 связки, получено %d", len(tags.links[postID]))
	}

	legacy := posts.legacyTags[postID]
	if len(legacy) != 2 || legacy[0] != "go" || legacy[1] != "redis" {
		t.Errorf("легаси-массив не совпал с целевым набором: %v", legacy)
	}

	// у снятого тега счётчик откатился
	pg, _ := tags.FindByName(context.Background(), "postgres")
	if pg.PostCount != 0 {
		t.Errorf("post_count снятого тега должен вернуться к 0, получено %d", pg.PostCount)
	}
}

func TestUpdateTag_RecomputesSlug(t *testing.T) {
	tags := newMockTagRepo()
	seeded := tags.seed("старое имя", "staroe-imya")
	svc := newTestTagService(tags, newMockPostRepo())

	updated, err := svc.UpdateTag(context.Background(), 1, seeded.ID, "Новое имя")
	if err != nil {
		t.Fatalf("ошибка переименования: %v", err)
	}
	if updated.Slug != "novoe-imya" {
		t.Errorf("слаг должен пересчитаться, получено %q", updated.Slug)
	}
}

func TestDeleteTag_NotFound(t *testing.T) {
	svc := newTestTagService(newMockTagRepo(), newMockPostRepo())

	err := svc.DeleteTag(context.Background(), 1, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидался ErrNotFound, получено %v", err)
	}
}
