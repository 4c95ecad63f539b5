// Package post は投稿作成・取得のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/ratelimit"
	"github.com/kanushi/kanushi-api/internal/repository"
	"github.com/kanushi/kanushi-api/internal/security"
	"github.com/kanushi/kanushi-api/internal/validation"
)

// Service は投稿のサービス層。
// レート制限の判定、本文のサニタイズ、永続化を担う。
type Service struct {
	postRepo  repository.PostRepository
	limiter   ratelimit.Limiter
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	postRepo repository.PostRepository,
	limiter ratelimit.Limiter,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		postRepo:  postRepo,
		limiter:   limiter,
		sanitizer: sanitizer,
	}
}

// Create は検証済みの入力から投稿を作成する。
// レート制限の判定は永続化より前に行われ、拒否された場合は
// *model.RateLimitErrorを返して副作用を残さない。
// 制限内で許可された時点でタイムスタンプは記録済みとなるため、
// その後の永続化失敗でも枠は消費される。
func (s *Service) Create(ctx context.Context, authorID int64, in *validation.ValidatedPost) (*model.Post, error) {
	decision, err := s.limiter.Allow(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("レート制限の判定に失敗しました: %w", err)
	}
	if !decision.Allowed {
		return nil, &model.RateLimitError{
			Limit:      s.limiter.Limit(),
			Window:     s.limiter.WindowDescriptor(),
			RetryAfter: ratelimit.RetryAfterSeconds(decision.RetryAfter),
		}
	}

	p := &model.Post{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		ContentType: in.ContentType,
		TextContent: s.sanitizer.Sanitize(in.TextContent),
		MediaURL:    in.MediaURL,
		CreatedAt:   time.Now(),
	}

	err = s.postRepo.Create(ctx, p)
	if model.IsTransientStorage(err) {
		err = s.postRepo.Create(ctx, p)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	return p, nil
}

// Get は指定IDの投稿を取得する。
// 見つからない場合はPOST_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, postID string) (*model.Post, error) {
	p, err := s.postRepo.FindByID(ctx, postID)
	if model.IsTransientStorage(err) {
		p, err = s.postRepo.FindByID(ctx, postID)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	return p, nil
}
