package offline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/security"
)

// HTTPMediaSizer は配信元へのHEADリクエストでメディアサイズを取得するMediaSizer。
// HTTPクライアントはSSRF防止付きで、プライベートIPやメタデータIPへの
// リクエストはDNS解決後でもブロックされる。
// テキスト投稿はネットワークアクセスなしで本文のバイト長を返す。
type HTTPMediaSizer struct {
	client *http.Client
}

// NewHTTPMediaSizer はHTTPMediaSizerを生成する。
func NewHTTPMediaSizer(guard security.SSRFGuardService, timeout time.Duration) *HTTPMediaSizer {
	return &HTTPMediaSizer{
		client: guard.NewSafeClient(timeout),
	}
}

// SizeOf は投稿の保存サイズを返す。
func (s *HTTPMediaSizer) SizeOf(ctx context.Context, post *model.Post) (int64, error) {
	if post.ContentType == model.ContentTypeText {
		return int64(len(post.TextContent)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, post.MediaURL, nil)
	if err != nil {
		return 0, fmt.Errorf("HEADリクエストの生成に失敗しました: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("メディアサイズの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("メディアの配信元が異常応答を返しました: status=%d", resp.StatusCode)
	}
	if resp.ContentLength <= 0 {
		return 0, fmt.Errorf("メディアの配信元がContent-Lengthを返しませんでした: %s", post.MediaURL)
	}

	return resp.ContentLength, nil
}

// compile-time interface check
var _ MediaSizer = (*HTTPMediaSizer)(nil)
