// Package model はドメインモデルを定義する。
package model

import "time"

// FollowType はフォロー関係の種別を表す。
type FollowType string

const (
	// FollowTypeFamily は理由の明示が必須のフォロー（ファミリー）。
	FollowTypeFamily FollowType = "family"
	// FollowTypeWatch は理由不要の軽量なフォロー（ウォッチ）。
	FollowTypeWatch FollowType = "watch"
)

// IsValid はフォロー種別が定義済みの値かを返す。
func (t FollowType) IsValid() bool {
	return t == FollowTypeFamily || t == FollowTypeWatch
}

// Follow はフォロワーからフォロイーへの有向エッジを表す。
// (FollowerID, FolloweeID) の組はアクティブなエッジ1本のみ許される。
// エッジは作成後イミュータブルで、種別や理由の変更は削除+再作成でのみ行う。
type Follow struct {
	ID         int64
	FollowerID int64
	FolloweeID int64
	Type       FollowType
	Reason     string // Type = family のとき必須。watch のときは空。
	CreatedAt  time.Time
}
