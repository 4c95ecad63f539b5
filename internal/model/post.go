// Package model はドメインモデルを定義する。
package model

import "time"

// ContentType は投稿のコンテンツ種別を表す。
type ContentType string

const (
	// ContentTypeText はテキスト投稿。
	ContentTypeText ContentType = "text"
	// ContentTypeImage は画像投稿。
	ContentTypeImage ContentType = "image"
	// ContentTypeVideo は動画投稿。
	ContentTypeVideo ContentType = "video"
	// ContentTypeAudio は音声投稿。
	ContentTypeAudio ContentType = "audio"
)

// IsValid はコンテンツ種別が定義済みの値かを返す。
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeText, ContentTypeImage, ContentTypeVideo, ContentTypeAudio:
		return true
	}
	return false
}

// Post はユーザーの投稿を表す。
type Post struct {
	ID          string
	AuthorID    int64
	ContentType ContentType
	TextContent string // サニタイズ済み
	MediaURL    string // メディア投稿のみ。テキスト投稿では空。
	CreatedAt   time.Time
}
