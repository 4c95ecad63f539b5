// Package model はドメインモデルを定義する。
package model

import "time"

// OfflineContent はユーザーの「後で読む」オフラインキャッシュエントリを表す。
// (UserID, PostID) の組は1件のみ許され、再キャッシュは競合として扱う。
// エントリはインプレース更新されない。期限切れまたは明示削除で消える。
type OfflineContent struct {
	ID        string
	UserID    int64
	PostID    string
	SizeBytes int64
	CachedAt  time.Time
	ExpiresAt time.Time
}

// IsExpired は基準時刻においてエントリが期限切れかを返す。
func (c *OfflineContent) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// OfflineEntry はキャッシュエントリと投稿本体を結合した一覧用モデル。
type OfflineEntry struct {
	OfflineContent
	Post Post
}
