package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"blogtalks/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий комментариев (заглушка).
type mockCommentRepo struct {
	comments         map[int64]*models.Comment
	flat             []models.CommentWithAuthor
	lastOnlyApproved *bool
	deletedSubtree   int
	nextID           int64
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[int64]*models.Comment)}
}

func (m *mockCommentRepo) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.comments[cp.ID] = &cp
	return &cp, nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCommentRepo) ListByPost(_ context.Context, postID int64, onlyApproved bool) ([]models.CommentWithAuthor, error) {
	m.lastOnlyApproved = &onlyApproved
	var out []models.CommentWithAuthor
	for _, c := range m.flat {
		if c.PostID != postID {
			continue
		}
		if onlyApproved && !c.Approved {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCommentRepo) ListModeration(_ context.Context, status string, limit, offset int) ([]models.CommentWithAuthor, int, error) {
	var out []models.CommentWithAuthor
	for _, c := range m.flat {
		switch status {
		case "pending":
			if c.Approved {
				continue
			}
		case "approved":
			if !c.Approved {
				continue
			}
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCommentRepo) Approve(_ context.Context, id int64) (bool, error) {
	c, ok := m.comments[id]
	if !ok {
		return false, nil
	}
	c.Approved = true
	return true, nil
}

func (m *mockCommentRepo) DeleteTree(_ context.Context, id int64) (int, error) {
	deleted := 0
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := m.comments[cur]; !ok {
			continue
		}
		delete(m.comments, cur)
		deleted++
		for cid, c := range m.comments {
			if c.ParentID != nil && *c.ParentID == cur {
				queue = append(queue, cid)
			}
		}
	}
	m.deletedSubtree = deleted
	return deleted, nil
}

func (m *mockCommentRepo) ExistsOnPost(_ context.Context, id, postID int64) (bool, error) {
	c, ok := m.comments[id]
	return ok && c.PostID == postID, nil
}

func flatComment(id int64, parentID *int64, approved bool) models.CommentWithAuthor {
	return models.CommentWithAuthor{
		Comment: models.Comment{ID: id, PostID: 1, UserID: 2, ParentID: parentID, Content: "текст", Approved: approved},
		Author:  models.AuthorInfo{ID: 2, DisplayName: "Читатель"},
	}
}

func ptr64(v int64) *int64 { return &v }

func newTestCommentService(comments *mockCommentRepo, posts *mockPostRepo) *CommentService {
	return NewCommentService(comments, posts, adminDirectory(), nil)
}

func seedPublishedPost(t *testing.T, posts *mockPostRepo) *models.Post {
	t.Helper()
	p, err := posts.Create(context.Background(), &models.Post{
		Title: "Пост", Slug: "post", Content: "текст", Published: true,
	})
	if err != nil {
		t.Fatalf("ошибка сидирования поста: %v", err)
	}
	return p
}

func TestBuildCommentTree_EveryCommentLandsOnce(t *testing.T) {
	flat := []models.CommentWithAuthor{
		flatComment(5, ptr64(1), true),
		flatComment(4, ptr64(2), true),
		flatComment(3, nil, true),
		flatComment(2, ptr64(1), true),
		flatComment(1, nil, true),
	}

	roots := BuildCommentTree(flat)

	if got := CountComments(roots); got != len(flat) {
		t.Fatalf("дерево потеряло комментарии: %d из %d", got, len(flat))
	}
	// корни — только комментарии без родителя
	for _, r := range roots {
		if r.ParentID != nil && !r.ParentRemoved {
			t.Errorf("комментарий %d с родителем оказался в корне без пометки", r.ID)
		}
	}
}

func TestBuildCommentTree_ReplyCountOnlyDirect(t *testing.T) {
	// 1 ← 2 ← 3: у корня один прямой ответ, не два
	flat := []models.CommentWithAuthor{
		flatComment(3, ptr64(2), true),
		flatComment(2, ptr64(1), true),
		flatComment(1, nil, true),
	}

	roots := BuildCommentTree(flat)
	if len(roots) != 1 {
		t.Fatalf("ожидался один корень, получено %d", len(roots))
	}
	if roots[0].ReplyCount != 1 {
		t.Errorf("reply_count должен считать только прямые ответы: %d", roots[0].ReplyCount)
	}
	if roots[0].Replies[0].ReplyCount != 1 {
		t.Errorf("у промежуточного узла тоже один прямой ответ: %d", roots[0].Replies[0].ReplyCount)
	}
}

func TestBuildCommentTree_OrphanPromotedToRoot(t *testing.T) {
	// родитель 10 не попал в выборку (не одобрен) — ответ всплывает в корень
	flat := []models.CommentWithAuthor{
		flatComment(2, ptr64(10), true),
		flatComment(1, nil, true),
	}

	roots := BuildCommentTree(flat)
	if len(roots) != 2 {
		t.Fatalf("сирота должен подняться в корень: %d корней", len(roots))
	}

	var orphan *models.CommentNode
	for _, r := range roots {
		if r.ID == 2 {
			orphan = r
		}
	}
	if orphan == nil || !orphan.ParentRemoved {
		t.Fatal("сирота должен нести пометку parent_removed")
	}
}

func TestBuildCommentTree_PreservesOrder(t *testing.T) {
	flat := []models.CommentWithAuthor{
		flatComment(3, nil, true),
		flatComment(2, nil, true),
		flatComment(1, nil, true),
	}

	roots := BuildCommentTree(flat)
	for i, want := range []int64{3, 2, 1} {
		if roots[i].ID != want {
			t.Fatalf("порядок корней нарушен: позиция %d — id %d", i, roots[i].ID)
		}
	}
}

func TestGetThread_VisibilityByRole(t *testing.T) {
	comments := newMockCommentRepo()
	posts := newMockPostRepo()
	post := seedPublishedPost(t, posts)

	comments.flat = []models.CommentWithAuthor{
		{Comment: models.Comment{ID: 1, PostID: post.ID, Approved: true}},
		{Comment: models.Comment{ID: 2, PostID: post.ID, Approved: false}},
	}
	svc := newTestCommentService(comments, posts)

	thread, err := svc.GetThread(context.Background(), post.ID, false)
	if err != nil {
		t.Fatalf("ошибка чтения треда: %v", err)
	}
	if thread.Total != 1 {
		t.Errorf("не-админ должен видеть только одобренные: %d", thread.Total)
	}
	if !*comments.lastOnlyApproved {
		t.Error("для не-админа фильтр одобренных должен уходить в репозиторий")
	}

	thread, err = svc.GetThread(context.Background(), post.ID, true)
	if err != nil {
		t.Fatalf("ошибка чтения треда админом: %v", err)
	}
	if thread.Total != 2 {
		t.Errorf("админ должен видеть всё: %d", thread.Total)
	}
}

func TestSubmit_ModerationDefaults(t *testing.T) {
	comments := newMockCommentRepo()
	posts := newMockPostRepo()
	post := seedPublishedPost(t, posts)
	svc := newTestCommentService(comments, posts)

	// обычный пользователь уходит в очередь модерации
	c, err := svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: post.ID, Content: "привет"})
	if err != nil {
		t.Fatalf("ошибка создания комментария: %v", err)
	}
	if c.Approved {
		t.Error("комментарий обычного пользователя должен ждать модерации")
	}

	// комментарий админа одобряется сразу
	c, err = svc.Submit(context.Background(), 1, models.SubmitCommentRequest{PostID: post.ID, Content: "ответ админа"})
	if err != nil {
		t.Fatalf("ошибка создания комментария админом: %v", err)
	}
	if !c.Approved {
		t.Error("комментарий админа должен одобряться автоматически")
	}
}

func TestSubmit_Validation(t *testing.T) {
	comments := newMockCommentRepo()
	posts := newMockPostRepo()
	post := seedPublishedPost(t, posts)
	svc := newTestCommentService(comments, posts)

	// пустой после санитизации контент отбрасывается
	_, err := svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: post.ID, Content: "<script>alert(1)</script>"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("скрипт должен вычищаться до пустоты: %v", err)
	}

	// несуществующий пост
	_, err = svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: 999, Content: "текст"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидался ErrNotFound по несуществующему посту: %v", err)
	}

	// без пользователя
	_, err = svc.Submit(context.Background(), 0, models.SubmitCommentRequest{PostID: post.ID, Content: "текст"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("ожидался ErrUnauthenticated: %v", err)
	}
}

func TestSubmit_ParentMustBeOnSamePost(t *testing.T) {
	comments := newMockCommentRepo()
	posts := newMockPostRepo()
	post := seedPublishedPost(t, posts)
	other, _ := posts.Create(context.Background(), &models.Post{Title: "Другой", Slug: "other", Published: true})
	svc := newTestCommentService(comments, posts)

	parent, err := svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: other.ID, Content: "на другом посте"})
	if err != nil {
		t.Fatalf("ошибка создания родителя: %v", err)
	}

	_, err = svc.Submit(context.Background(), 2, models.SubmitCommentRequest{
		PostID: post.ID, ParentID: &parent.ID, Content: "ответ не туда",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("родитель с чужого поста должен отклоняться: %v", err)
	}
}

func TestApprove_AdminOnly(t *testing.T) {
	comments := newMockCommentRepo()
	posts := newMockPostRepo()
	post := seedPublishedPost(t, posts)
	svc := newTestCommentService(comments, posts)

	c, err := svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: post.ID, Content: "ждёт модерации"})
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	if err := svc.Approve(context.Background(), 2, c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("не-админ не может одобрять: %v", err)
	}

	if err := svc.Approve(context.Background(), 1, c.ID); err != nil {
		t.Fatalf("ошибка одобрения админом: %v", err)
	}
	if got := comments.comments[c.ID]; !got.Approved {
		t.Error("комментарий должен стать одобренным")
	}

	if err := svc.Approve(context.Background(), 1, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("одобрение несуществующего: %v", err)
	}
}

func TestDelete_CascadesSubtree(t *testing.T) {
	comments := newMockCommentRepo()
	posts := newMockPostRepo()
	post := seedPublishedPost(t, posts)
	svc := newTestCommentService(comments, posts)

	root, _ := svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: post.ID, Content: "корень"})
	child, _ := svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: post.ID, ParentID: &root.ID, Content: "ответ"})
	_, _ = svc.Submit(context.Background(), 2, models.SubmitCommentRequest{PostID: post.ID, ParentID: &child.ID, Content: "ответ на ответ"})

	if err := svc.Delete(context.Background(), 1, root.ID); err != nil {
		t.Fatalf("ошибка каскадного удаления: %v", err)
	}
	if comments.deletedSubtree != 3 {
		t.Errorf("должно удалиться всё поддерево (3), удалено %d", comments.deletedSubtree)
	}
	if len(comments.comments) != 0 {
		t.Errorf("осиротевших строк быть не должно: %d", len(comments.comments))
	}
}

func TestModerationQueue_StatusValidation(t *testing.T) {
	svc := newTestCommentService(newMockCommentRepo(), newMockPostRepo())

	_, _, err := svc.ModerationQueue(context.Background(), 1, "garbage", 10, 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("неизвестный статус должен отклоняться: %v", err)
	}

	_, _, err = svc.ModerationQueue(context.Background(), 2, "pending", 10, 0)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("очередь модерации только для админа: %v", err)
	}
}
