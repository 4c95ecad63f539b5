// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/kanushi/kanushi-api/internal/model"
)

// FollowRepository はフォローエッジの永続化インターフェース。
type FollowRepository interface {
	// Create はフォローエッジを作成し、採番されたIDと作成時刻を埋めた
	// エッジを返す。(follower_id, followee_id) が既に存在する場合は
	// DUPLICATE_FOLLOWの*model.APIErrorを返す。
	Create(ctx context.Context, follow *model.Follow) (*model.Follow, error)

	// FindByID は指定IDのエッジを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Follow, error)

	// Delete は指定IDかつ指定フォロワーが所有するエッジを削除する。
	// 削除対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id, followerID int64) (bool, error)

	// ListByFollower はフォロワーの全エッジを作成順で返す。
	ListByFollower(ctx context.Context, followerID int64) ([]*model.Follow, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)
}

// OfflineContentRepository はオフラインキャッシュエントリの永続化インターフェース。
type OfflineContentRepository interface {
	// Insert はエントリを作成する。同一ユーザーの並行保存は直列化され、
	// 非期限切れエントリの合計にsize_bytesを加えた値がmaxSizeBytesを
	// 超える場合は挿入せずQUOTA_EXCEEDEDを返す。そのユーザーの期限切れ
	// 行は挿入前に遅延削除されるため、期限切れ後の再保存は重複にならない。
	// (user_id, post_id) が非期限切れで既に存在する場合はALREADY_CACHEDを返す。
	Insert(ctx context.Context, entry *model.OfflineContent, maxSizeBytes int64) error

	// ListActive は指定ユーザーの非期限切れエントリを投稿本体付きで
	// キャッシュ時刻の降順で返す。
	ListActive(ctx context.Context, userID int64, now time.Time) ([]model.OfflineEntry, error)

	// Delete は指定ユーザーの指定投稿のエントリを削除する。
	// 削除対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID int64, postID string) (bool, error)

	// DeleteExpired は期限切れエントリを削除し、削除件数を返す。
	// クリーンアップワーカーから日次で呼ばれる。冪等。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
