package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kanushi/kanushi-api/internal/metrics"
	"github.com/kanushi/kanushi-api/internal/middleware"
	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/validation"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は検証済みの入力から投稿を作成する。
	// レート制限で拒否された場合は*model.RateLimitErrorを返す。
	Create(ctx context.Context, authorID int64, in *validation.ValidatedPost) (*model.Post, error)
	// Get は指定IDの投稿を取得する。
	Get(ctx context.Context, postID string) (*model.Post, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service      PostServiceInterface
	urlValidator validation.MediaURLValidator
	collector    metrics.MetricsCollector
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(
	service PostServiceInterface,
	urlValidator validation.MediaURLValidator,
	collector metrics.MetricsCollector,
) *PostHandler {
	return &PostHandler{
		service:      service,
		urlValidator: urlValidator,
		collector:    collector,
	}
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID          string    `json:"id"`
	AuthorID    int64     `json:"authorId"`
	ContentType string    `json:"contentType"`
	TextContent string    `json:"textContent,omitempty"`
	MediaURL    string    `json:"mediaUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		ContentType: string(p.ContentType),
		TextContent: p.TextContent,
		MediaURL:    p.MediaURL,
		CreatedAt:   p.CreatedAt,
	}
}

// rateLimitResponse は投稿レート制限超過時の429レスポンスボディ。
// フィールド名と形式はクライアントとの互換性契約であり変更不可。
type rateLimitResponse struct {
	Type       string `json:"type"`
	RetryAfter int    `json:"retryAfter"`
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
}

// CreatePost は投稿を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	authorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	var req validation.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	in, vErr := validation.ValidatePostRequest(req, h.urlValidator)
	if vErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, vErr)
		return
	}

	created, err := h.service.Create(r.Context(), authorID, in)
	if err != nil {
		var rlErr *model.RateLimitError
		if errors.As(err, &rlErr) {
			h.collector.RecordPostRateLimited()
			writeRateLimitExceededResponse(w, rlErr)
			slog.Info("post rate limit exceeded",
				slog.Int64("user_id", authorID),
				slog.Int("retry_after", rlErr.RetryAfter),
			)
			return
		}
		handleServiceError(w, err)
		return
	}

	h.collector.RecordPostCreated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(created))
}

// GetPost は指定IDの投稿を取得する。
// GET /api/posts/:id
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	postID := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(p))
}

// writeRateLimitExceededResponse は投稿レート制限超過の429レスポンスを書き込む。
// 統一エラーフォーマットではなく互換性契約の専用ボディを使用する。
func writeRateLimitExceededResponse(w http.ResponseWriter, rlErr *model.RateLimitError) {
	w.Header().Set("Retry-After", strconv.Itoa(rlErr.RetryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(rateLimitResponse{
		Type:       model.ErrCodeRateLimitExceeded,
		RetryAfter: rlErr.RetryAfter,
		Limit:      rlErr.Limit,
		Window:     rlErr.Window,
	})
}
