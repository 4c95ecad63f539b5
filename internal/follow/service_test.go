package follow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/validation"
)

// --- モック ---

type mockFollowRepo struct {
	createFn         func(ctx context.Context, follow *model.Follow) (*model.Follow, error)
	findByIDFn       func(ctx context.Context, id int64) (*model.Follow, error)
	deleteFn         func(ctx context.Context, id, followerID int64) (bool, error)
	listByFollowerFn func(ctx context.Context, followerID int64) ([]*model.Follow, error)
}

func (m *mockFollowRepo) Create(ctx context.Context, follow *model.Follow) (*model.Follow, error) {
	return m.createFn(ctx, follow)
}
func (m *mockFollowRepo) FindByID(ctx context.Context, id int64) (*model.Follow, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockFollowRepo) Delete(ctx context.Context, id, followerID int64) (bool, error) {
	return m.deleteFn(ctx, id, followerID)
}
func (m *mockFollowRepo) ListByFollower(ctx context.Context, followerID int64) ([]*model.Follow, error) {
	return m.listByFollowerFn(ctx, followerID)
}

// --- テスト ---

// TestService_Create はフォロー作成を検証する。
func TestService_Create(t *testing.T) {
	repo := &mockFollowRepo{
		createFn: func(ctx context.Context, follow *model.Follow) (*model.Follow, error) {
			created := *follow
			created.ID = 100
			created.CreatedAt = time.Now()
			return &created, nil
		},
	}
	svc := NewService(repo)

	in := &validation.ValidatedFollow{
		FolloweeID: 2,
		Type:       model.FollowTypeFamily,
		Reason:     "家族です",
	}
	got, err := svc.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID != 100 {
		t.Errorf("ID = %d, want 100", got.ID)
	}
	if got.FollowerID != 1 || got.FolloweeID != 2 {
		t.Errorf("edge = (%d, %d), want (1, 2)", got.FollowerID, got.FolloweeID)
	}
	if got.Type != model.FollowTypeFamily {
		t.Errorf("Type = %s, want family", got.Type)
	}
	if got.Reason != "家族です" {
		t.Errorf("Reason = %q, want 家族です", got.Reason)
	}
}

// TestService_Create_Duplicate は重複フォローが409競合になることを検証する。
func TestService_Create_Duplicate(t *testing.T) {
	repo := &mockFollowRepo{
		createFn: func(ctx context.Context, follow *model.Follow) (*model.Follow, error) {
			return nil, model.NewDuplicateFollowError()
		},
	}
	svc := NewService(repo)

	in := &validation.ValidatedFollow{FolloweeID: 2, Type: model.FollowTypeWatch}
	_, err := svc.Create(context.Background(), 1, in)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateFollow {
		t.Errorf("Code = %s, want DUPLICATE_FOLLOW", apiErr.Code)
	}
}

// TestService_Create_TransientRetry は一時障害が1回だけリトライされることを検証する。
func TestService_Create_TransientRetry(t *testing.T) {
	calls := 0
	repo := &mockFollowRepo{
		createFn: func(ctx context.Context, follow *model.Follow) (*model.Follow, error) {
			calls++
			if calls == 1 {
				return nil, &model.TransientStorageError{Err: errors.New("connection reset")}
			}
			created := *follow
			created.ID = 7
			return &created, nil
		},
	}
	svc := NewService(repo)

	in := &validation.ValidatedFollow{FolloweeID: 2, Type: model.FollowTypeWatch}
	got, err := svc.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("repo calls = %d, want 2", calls)
	}
	if got.ID != 7 {
		t.Errorf("ID = %d, want 7", got.ID)
	}
}

// TestService_Create_TransientExhausted はリトライ後もなお失敗した場合に
// STORAGE_UNAVAILABLEが返ることを検証する。
func TestService_Create_TransientExhausted(t *testing.T) {
	calls := 0
	repo := &mockFollowRepo{
		createFn: func(ctx context.Context, follow *model.Follow) (*model.Follow, error) {
			calls++
			return nil, &model.TransientStorageError{Err: errors.New("connection reset")}
		},
	}
	svc := NewService(repo)

	in := &validation.ValidatedFollow{FolloweeID: 2, Type: model.FollowTypeWatch}
	_, err := svc.Create(context.Background(), 1, in)

	if calls != 2 {
		t.Errorf("repo calls = %d, want 2 (single retry)", calls)
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeStorageUnavailable {
		t.Errorf("Code = %s, want STORAGE_UNAVAILABLE", apiErr.Code)
	}
}

// TestService_Unfollow はアンフォローを検証する。
func TestService_Unfollow(t *testing.T) {
	var gotID, gotFollower int64
	repo := &mockFollowRepo{
		deleteFn: func(ctx context.Context, id, followerID int64) (bool, error) {
			gotID, gotFollower = id, followerID
			return true, nil
		},
	}
	svc := NewService(repo)

	if err := svc.Unfollow(context.Background(), 1, 100); err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}
	if gotID != 100 || gotFollower != 1 {
		t.Errorf("Delete called with (%d, %d), want (100, 1)", gotID, gotFollower)
	}
}

// TestService_Unfollow_NotFound は存在しないエッジや他人のエッジが
// FOLLOW_NOT_FOUNDになることを検証する。
func TestService_Unfollow_NotFound(t *testing.T) {
	repo := &mockFollowRepo{
		deleteFn: func(ctx context.Context, id, followerID int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo)

	err := svc.Unfollow(context.Background(), 1, 999)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeFollowNotFound {
		t.Errorf("Code = %s, want FOLLOW_NOT_FOUND", apiErr.Code)
	}
}

// TestService_Get はフォロー1件取得を検証する。
func TestService_Get(t *testing.T) {
	now := time.Now()
	repo := &mockFollowRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Follow, error) {
			return &model.Follow{ID: id, FollowerID: 1, FolloweeID: 2, Type: model.FollowTypeWatch, CreatedAt: now}, nil
		},
	}
	svc := NewService(repo)

	got, err := svc.Get(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != 100 || got.FolloweeID != 2 {
		t.Errorf("edge = (%d, followee %d), want (100, 2)", got.ID, got.FolloweeID)
	}
}

// TestService_Get_NotFoundAfterUnfollow はアンフォロー済みエッジの取得が
// FOLLOW_NOT_FOUNDになることを検証する。
func TestService_Get_NotFoundAfterUnfollow(t *testing.T) {
	deleted := false
	repo := &mockFollowRepo{
		deleteFn: func(ctx context.Context, id, followerID int64) (bool, error) {
			deleted = true
			return true, nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*model.Follow, error) {
			if deleted {
				return nil, nil
			}
			return &model.Follow{ID: id, FollowerID: 1, FolloweeID: 2, Type: model.FollowTypeWatch}, nil
		},
	}
	svc := NewService(repo)

	if err := svc.Unfollow(context.Background(), 1, 100); err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}

	_, err := svc.Get(context.Background(), 1, 100)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeFollowNotFound {
		t.Errorf("Code = %s, want FOLLOW_NOT_FOUND", apiErr.Code)
	}
}

// TestService_Get_NotOwned は他人のエッジが存在しない場合と
// 同じエラーになることを検証する。
func TestService_Get_NotOwned(t *testing.T) {
	repo := &mockFollowRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Follow, error) {
			return &model.Follow{ID: id, FollowerID: 99, FolloweeID: 2, Type: model.FollowTypeWatch}, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), 1, 100)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeFollowNotFound {
		t.Errorf("Code = %s, want FOLLOW_NOT_FOUND", apiErr.Code)
	}
}

// TestService_List はフォロー一覧取得を検証する。
func TestService_List(t *testing.T) {
	now := time.Now()
	repo := &mockFollowRepo{
		listByFollowerFn: func(ctx context.Context, followerID int64) ([]*model.Follow, error) {
			return []*model.Follow{
				{ID: 1, FollowerID: followerID, FolloweeID: 2, Type: model.FollowTypeFamily, Reason: "家族", CreatedAt: now},
				{ID: 2, FollowerID: followerID, FolloweeID: 3, Type: model.FollowTypeWatch, CreatedAt: now},
			}, nil
		},
	}
	svc := NewService(repo)

	got, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Type != model.FollowTypeFamily || got[1].Type != model.FollowTypeWatch {
		t.Errorf("unexpected types: %s, %s", got[0].Type, got[1].Type)
	}
}
