// Package follow はフォロー関係管理のドメインロジックを提供する。
package follow

import (
	"context"
	"fmt"
	"time"

	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/repository"
	"github.com/kanushi/kanushi-api/internal/validation"
)

// Service はフォロー関係のサービス層。
// フォロー作成、アンフォロー、一覧取得のビジネスロジックを提供する。
type Service struct {
	followRepo repository.FollowRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(followRepo repository.FollowRepository) *Service {
	return &Service{
		followRepo: followRepo,
	}
}

// Create は検証済みの入力からフォローエッジを作成する。
// (follower, followee) が既に存在する場合はDUPLICATE_FOLLOWを返す。
// 一時的なストレージ障害は1回だけリトライし、なお失敗した場合は
// STORAGE_UNAVAILABLEを返す。
func (s *Service) Create(ctx context.Context, followerID int64, in *validation.ValidatedFollow) (*model.Follow, error) {
	edge := &model.Follow{
		FollowerID: followerID,
		FolloweeID: in.FolloweeID,
		Type:       in.Type,
		Reason:     in.Reason,
		CreatedAt:  time.Now(),
	}

	created, err := s.followRepo.Create(ctx, edge)
	if model.IsTransientStorage(err) {
		created, err = s.followRepo.Create(ctx, edge)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("フォローの作成に失敗しました: %w", err)
	}

	return created, nil
}

// Unfollow はフォローエッジを削除する。
// エッジが存在しない場合、または他人のエッジの場合はFOLLOW_NOT_FOUNDを返す。
// 所有者の確認と削除は同一のDELETE文で行われるため、存在の有無と
// 所有権の不一致は外部から区別できない。
func (s *Service) Unfollow(ctx context.Context, followerID, followID int64) error {
	deleted, err := s.followRepo.Delete(ctx, followID, followerID)
	if model.IsTransientStorage(err) {
		deleted, err = s.followRepo.Delete(ctx, followID, followerID)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return model.NewStorageUnavailableError()
		}
		return fmt.Errorf("フォローの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewFollowNotFoundError(followID)
	}

	return nil
}

// Get は指定IDのエッジを1件取得する。
// 存在しないエッジと他人のエッジはどちらもFOLLOW_NOT_FOUNDとして扱い、
// 外部からエッジの存在を探れないようにする。
func (s *Service) Get(ctx context.Context, followerID, followID int64) (*model.Follow, error) {
	edge, err := s.followRepo.FindByID(ctx, followID)
	if model.IsTransientStorage(err) {
		edge, err = s.followRepo.FindByID(ctx, followID)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("フォローの取得に失敗しました: %w", err)
	}
	if edge == nil || edge.FollowerID != followerID {
		return nil, model.NewFollowNotFoundError(followID)
	}

	return edge, nil
}

// List はフォロワーの全エッジを作成順で返す。
func (s *Service) List(ctx context.Context, followerID int64) ([]*model.Follow, error) {
	edges, err := s.followRepo.ListByFollower(ctx, followerID)
	if model.IsTransientStorage(err) {
		edges, err = s.followRepo.ListByFollower(ctx, followerID)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}

	return edges, nil
}
