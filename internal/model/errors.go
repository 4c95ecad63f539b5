// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード（クライアントが機械判定に使う type）
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, not_found, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidFolloweeID     = "INVALID_FOLLOWEE_ID"
	ErrCodeInvalidFollowType     = "INVALID_FOLLOW_TYPE"
	ErrCodeMissingReason         = "MISSING_REASON"
	ErrCodeInvalidFollowIDFormat = "INVALID_FOLLOW_ID_FORMAT"
	ErrCodeSelfFollowForbidden   = "SELF_FOLLOW_FORBIDDEN"
	ErrCodeDuplicateFollow       = "DUPLICATE_FOLLOW"
	ErrCodeFollowNotFound        = "FOLLOW_NOT_FOUND"
	ErrCodeInvalidContentType    = "INVALID_CONTENT_TYPE"
	ErrCodeMissingTextContent    = "MISSING_TEXT_CONTENT"
	ErrCodeInvalidMediaURL       = "INVALID_MEDIA_URL"
	ErrCodePostNotFound          = "POST_NOT_FOUND"
	ErrCodeAlreadyCached         = "ALREADY_CACHED"
	ErrCodeOfflineEntryNotFound  = "OFFLINE_ENTRY_NOT_FOUND"
	ErrCodeQuotaExceeded         = "QUOTA_EXCEEDED"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrCodeStorageUnavailable    = "STORAGE_UNAVAILABLE"
)

// NewInvalidFolloweeIDError はフォロイーID不正エラーを生成する。
func NewInvalidFolloweeIDError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFolloweeID,
		Message:  "followeeIdが未指定か、整数ではありません。",
		Category: "validation",
		Action:   "followeeIdに正の整数を指定してください。",
	}
}

// NewInvalidFollowTypeError はフォロー種別不正エラーを生成する。
func NewInvalidFollowTypeError(got string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFollowType,
		Message:  fmt.Sprintf("無効なフォロー種別です: %s", got),
		Category: "validation",
		Action:   "followTypeには family または watch を指定してください。",
	}
}

// NewMissingReasonError はファミリーフォローの理由未指定エラーを生成する。
func NewMissingReasonError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingReason,
		Message:  "ファミリーフォローには理由の入力が必要です。",
		Category: "validation",
		Action:   "reasonに空白以外の文字列を指定してください。",
	}
}

// NewInvalidFollowIDFormatError はフォローID形式不正エラーを生成する。
func NewInvalidFollowIDFormatError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFollowIDFormat,
		Message:  fmt.Sprintf("フォローIDの形式が不正です: %s", raw),
		Category: "validation",
		Action:   "フォローIDには正の整数を指定してください。",
	}
}

// NewSelfFollowForbiddenError は自己フォロー禁止エラーを生成する。
func NewSelfFollowForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfFollowForbidden,
		Message:  "自分自身をフォローすることはできません。",
		Category: "validation",
		Action:   "他のユーザーを指定してください。",
	}
}

// NewDuplicateFollowError は重複フォローエラーを生成する。
// エッジはイミュータブルのため、種別や理由を変更する場合は
// 一度アンフォローしてから再作成する。
func NewDuplicateFollowError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFollow,
		Message:  "このユーザーは既にフォローしています。",
		Category: "conflict",
		Action:   "種別を変更する場合は、アンフォロー後に再度フォローしてください。",
	}
}

// NewFollowNotFoundError はフォロー未検出エラーを生成する。
func NewFollowNotFoundError(followID int64) *APIError {
	return &APIError{
		Code:     ErrCodeFollowNotFound,
		Message:  fmt.Sprintf("指定されたフォローが見つかりません: %d", followID),
		Category: "not_found",
		Action:   "フォローIDを確認してください。",
	}
}

// NewInvalidContentTypeError はコンテンツ種別不正エラーを生成する。
func NewInvalidContentTypeError(got string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContentType,
		Message:  fmt.Sprintf("無効なコンテンツ種別です: %s", got),
		Category: "validation",
		Action:   "contentTypeには text、image、video、audio のいずれかを指定してください。",
	}
}

// NewMissingTextContentError はテキスト投稿の本文未指定エラーを生成する。
func NewMissingTextContentError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingTextContent,
		Message:  "テキスト投稿には本文の入力が必要です。",
		Category: "validation",
		Action:   "textContentに空白以外の文字列を指定してください。",
	}
}

// NewInvalidMediaURLError はメディアURL不正エラーを生成する。
func NewInvalidMediaURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMediaURL,
		Message:  fmt.Sprintf("無効なメディアURLです: %s", reason),
		Category: "validation",
		Action:   "公開されているhttps URLを指定してください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "not_found",
		Action:   "投稿IDを確認してください。",
	}
}

// NewAlreadyCachedError は再キャッシュ競合エラーを生成する。
func NewAlreadyCachedError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyCached,
		Message:  fmt.Sprintf("この投稿は既にオフライン保存されています: %s", postID),
		Category: "conflict",
		Action:   "保存済み一覧から該当の投稿を確認してください。",
	}
}

// NewOfflineEntryNotFoundError はオフライン保存エントリ未検出エラーを生成する。
func NewOfflineEntryNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodeOfflineEntryNotFound,
		Message:  fmt.Sprintf("この投稿はオフライン保存されていません: %s", postID),
		Category: "not_found",
		Action:   "保存済み一覧を確認してください。",
	}
}

// NewQuotaExceededError はオフラインキャッシュ容量超過エラーを生成する。
func NewQuotaExceededError(maxSizeBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeQuotaExceeded,
		Message:  fmt.Sprintf("オフライン保存の容量上限（%dバイト）を超過します。", maxSizeBytes),
		Category: "conflict",
		Action:   "不要な保存済み投稿を削除してから再度お試しください。",
	}
}

// NewStorageUnavailableError はストレージ一時障害エラーを生成する。
// 1回の自動リトライ後もなお失敗した場合にのみ呼び出し側へ返す。
func NewStorageUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageUnavailable,
		Message:  "ストレージへのアクセスに一時的に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// RateLimitError は投稿レート制限の超過を表す。
// 429レスポンスのボディ（type, retryAfter, limit, window）に必要な
// 構造化情報をそのまま保持する。
// レート制限は想定内の事象であり、システム障害としては扱わない。
type RateLimitError struct {
	Limit      int    // 違反した上限値
	Window     string // ウィンドウの説明（例: "1 minute"）
	RetryAfter int    // 再試行まで待つべき秒数（0以上）
}

// Error はerrorインターフェースを実装する。
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("[%s] limit=%d window=%s retry_after=%ds",
		ErrCodeRateLimitExceeded, e.Limit, e.Window, e.RetryAfter)
}

// TransientStorageError はリトライ可能なストレージ障害を表す。
// 接続断やシリアライゼーション失敗など、再実行で成功しうるエラーを
// リポジトリ層がこの型でラップし、サービス層が1回だけリトライする。
type TransientStorageError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("transient storage error: %v", e.Err)
}

// Unwrap はラップ元のエラーを返す。
func (e *TransientStorageError) Unwrap() error {
	return e.Err
}

// IsTransientStorage はエラーチェーンにTransientStorageErrorが含まれるかを返す。
func IsTransientStorage(err error) bool {
	var tse *TransientStorageError
	return errors.As(err, &tse)
}
