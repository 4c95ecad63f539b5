// Package offline はオフラインキャッシュポリシーのドメインロジックを提供する。
//
// ユーザーごとの容量上限と保持期間を持つ投稿の保存・一覧・削除を担う。
// 容量チェックと挿入はリポジトリ層の単一SQL文で行われるため、
// 並行保存でも上限を超過しない。
package offline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/repository"
)

// MediaSizer は投稿のキャッシュサイズ（バイト数）を算出するインターフェース。
type MediaSizer interface {
	// SizeOf は投稿の保存サイズを返す。
	// メディア投稿は配信元へのHEADリクエスト、テキスト投稿は本文長から算出する。
	SizeOf(ctx context.Context, post *model.Post) (int64, error)
}

// CacheSummary はオフライン保存の一覧と使用量を表す。
type CacheSummary struct {
	Items          []model.OfflineEntry
	TotalSizeBytes int64
	MaxSizeBytes   int64
}

// Service はオフラインキャッシュのサービス層。
type Service struct {
	offlineRepo  repository.OfflineContentRepository
	postRepo     repository.PostRepository
	sizer        MediaSizer
	maxSizeBytes int64
	retention    time.Duration
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	offlineRepo repository.OfflineContentRepository,
	postRepo repository.PostRepository,
	sizer MediaSizer,
	maxSizeBytes int64,
	retention time.Duration,
) *Service {
	return &Service{
		offlineRepo:  offlineRepo,
		postRepo:     postRepo,
		sizer:        sizer,
		maxSizeBytes: maxSizeBytes,
		retention:    retention,
		now:          time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替えたServiceを返す。テスト用。
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// Save は投稿をオフライン保存する。
// 投稿が存在しない場合はPOST_NOT_FOUND、既に保存済みの場合はALREADY_CACHED、
// 非期限切れエントリの合計に加えると容量上限を超える場合はQUOTA_EXCEEDEDを返す。
func (s *Service) Save(ctx context.Context, userID int64, postID string) (*model.OfflineEntry, error) {
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

	sizeBytes, err := s.sizer.SizeOf(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("保存サイズの算出に失敗しました: %w", err)
	}

	now := s.now()
	entry := &model.OfflineContent{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		SizeBytes: sizeBytes,
		CachedAt:  now,
		ExpiresAt: now.Add(s.retention),
	}

	err = s.offlineRepo.Insert(ctx, entry, s.maxSizeBytes)
	if model.IsTransientStorage(err) {
		err = s.offlineRepo.Insert(ctx, entry, s.maxSizeBytes)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("オフライン保存に失敗しました: %w", err)
	}

	return &model.OfflineEntry{OfflineContent: *entry, Post: *p}, nil
}

// List は非期限切れの保存エントリと使用量を返す。
// 期限切れエントリは物理削除の前でも一覧に現れない。
func (s *Service) List(ctx context.Context, userID int64) (*CacheSummary, error) {
	items, err := s.offlineRepo.ListActive(ctx, userID, s.now())
	if model.IsTransientStorage(err) {
		items, err = s.offlineRepo.ListActive(ctx, userID, s.now())
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return nil, model.NewStorageUnavailableError()
		}
		return nil, fmt.Errorf("オフライン保存一覧の取得に失敗しました: %w", err)
	}

	var total int64
	for _, item := range items {
		total += item.SizeBytes
	}

	return &CacheSummary{
		Items:          items,
		TotalSizeBytes: total,
		MaxSizeBytes:   s.maxSizeBytes,
	}, nil
}

// Remove は保存エントリを明示的に削除する。
// エントリが存在しない場合はOFFLINE_ENTRY_NOT_FOUNDを返す。
func (s *Service) Remove(ctx context.Context, userID int64, postID string) error {
	deleted, err := s.offlineRepo.Delete(ctx, userID, postID)
	if model.IsTransientStorage(err) {
		deleted, err = s.offlineRepo.Delete(ctx, userID, postID)
	}
	if err != nil {
		if model.IsTransientStorage(err) {
			return model.NewStorageUnavailableError()
		}
		return fmt.Errorf("オフライン保存の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewOfflineEntryNotFoundError(postID)
	}

	return nil
}
