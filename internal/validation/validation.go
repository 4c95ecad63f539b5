// Package validation はリクエストペイロードの検証を提供する。
// すべて副作用のない純粋関数で、正規化済みの値または構造化された
// 検証エラー（*model.APIError）を返す。
package validation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kanushi/kanushi-api/internal/model"
)

// FollowRequest はフォロー作成リクエストの生ペイロード。
// followeeIdは生のJSONトークンのまま受け、型不正（文字列・小数・null等）を
// デコードエラーではなくINVALID_FOLLOWEE_IDとして分類する。
type FollowRequest struct {
	FolloweeID json.RawMessage `json:"followeeId"`
	FollowType string          `json:"followType"`
	Reason     string          `json:"reason"`
}

// ValidatedFollow は検証済み・正規化済みのフォロー作成入力。
type ValidatedFollow struct {
	FolloweeID int64
	Type       model.FollowType
	Reason     string
}

// ValidateFollowRequest はフォロー作成リクエストを検証する。
// followerIDは認証コンテキストから取得した操作主体のID。
func ValidateFollowRequest(followerID int64, req FollowRequest) (*ValidatedFollow, *model.APIError) {
	followeeID, ok := parseFolloweeID(req.FolloweeID)
	if !ok {
		return nil, model.NewInvalidFolloweeIDError()
	}

	followType := model.FollowType(req.FollowType)
	if !followType.IsValid() {
		return nil, model.NewInvalidFollowTypeError(req.FollowType)
	}

	reason := strings.TrimSpace(req.Reason)
	switch followType {
	case model.FollowTypeFamily:
		if reason == "" {
			return nil, model.NewMissingReasonError()
		}
	case model.FollowTypeWatch:
		// watchフォローに理由は持たせない
		reason = ""
	}

	if followerID == followeeID {
		return nil, model.NewSelfFollowForbiddenError()
	}

	return &ValidatedFollow{
		FolloweeID: followeeID,
		Type:       followType,
		Reason:     reason,
	}, nil
}

// parseFolloweeID はfolloweeIdの生JSONトークンを正の整数として解釈する。
// 引用符付きの文字列("123")はJSONの型として数値ではないため、
// 欠落・小数・真偽値と同様にここでパースに失敗する。
func parseFolloweeID(raw json.RawMessage) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ValidateUnfollowID はアンフォロー対象のフォローIDを検証する。
// 正の整数としてパースできない場合は形式エラーを返す。
func ValidateUnfollowID(raw string) (int64, *model.APIError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidFollowIDFormatError(raw)
	}
	return id, nil
}

// PostRequest は投稿作成リクエストの生ペイロード。
type PostRequest struct {
	ContentType string `json:"contentType"`
	TextContent string `json:"textContent"`
	MediaURL    string `json:"mediaUrl"`
}

// MediaURLValidator はメディアURLの静的検証を行うインターフェース。
// security.SSRFGuardServiceのValidateURLの部分集合。
type MediaURLValidator interface {
	ValidateURL(rawURL string) error
}

// ValidatedPost は検証済み・正規化済みの投稿作成入力。
type ValidatedPost struct {
	ContentType model.ContentType
	TextContent string
	MediaURL    string
}

// ValidatePostRequest は投稿作成リクエストを検証する。
// メディアURLはurlValidatorによる静的SSRF検証を通過する必要がある。
func ValidatePostRequest(req PostRequest, urlValidator MediaURLValidator) (*ValidatedPost, *model.APIError) {
	contentType := model.ContentType(req.ContentType)
	if !contentType.IsValid() {
		return nil, model.NewInvalidContentTypeError(req.ContentType)
	}

	if contentType == model.ContentTypeText && strings.TrimSpace(req.TextContent) == "" {
		return nil, model.NewMissingTextContentError()
	}

	mediaURL := strings.TrimSpace(req.MediaURL)
	if contentType != model.ContentTypeText {
		if mediaURL == "" {
			return nil, model.NewInvalidMediaURLError("メディア投稿にはmediaUrlが必要です")
		}
		if err := urlValidator.ValidateURL(mediaURL); err != nil {
			return nil, model.NewInvalidMediaURLError(err.Error())
		}
	} else {
		// テキスト投稿にメディアは持たせない
		mediaURL = ""
	}

	return &ValidatedPost{
		ContentType: contentType,
		TextContent: req.TextContent,
		MediaURL:    mediaURL,
	}, nil
}
