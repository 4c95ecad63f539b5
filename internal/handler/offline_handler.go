package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kanushi/kanushi-api/internal/metrics"
	"github.com/kanushi/kanushi-api/internal/middleware"
	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/offline"
)

// OfflineServiceInterface はオフラインキャッシュハンドラーが必要とするサービスインターフェース。
type OfflineServiceInterface interface {
	// Save は投稿をオフライン保存する。
	Save(ctx context.Context, userID int64, postID string) (*model.OfflineEntry, error)
	// List は非期限切れの保存エントリと使用量を返す。
	List(ctx context.Context, userID int64) (*offline.CacheSummary, error)
	// Remove は保存エントリを明示的に削除する。
	Remove(ctx context.Context, userID int64, postID string) error
}

// OfflineHandler はオフラインキャッシュ管理のHTTPハンドラー。
type OfflineHandler struct {
	service   OfflineServiceInterface
	collector metrics.MetricsCollector
}

// NewOfflineHandler はOfflineHandlerを生成する。
func NewOfflineHandler(service OfflineServiceInterface, collector metrics.MetricsCollector) *OfflineHandler {
	return &OfflineHandler{
		service:   service,
		collector: collector,
	}
}

// offlineEntryResponse はオフライン保存エントリのAPIレスポンス。
type offlineEntryResponse struct {
	ID        string       `json:"id"`
	Post      postResponse `json:"post"`
	SizeBytes int64        `json:"sizeBytes"`
	CachedAt  time.Time    `json:"cachedAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// offlineListResponse はオフライン保存一覧のAPIレスポンス。
type offlineListResponse struct {
	Items          []offlineEntryResponse `json:"items"`
	TotalSizeBytes int64                  `json:"totalSizeBytes"`
	MaxSizeBytes   int64                  `json:"maxSizeBytes"`
}

func toOfflineEntryResponse(e *model.OfflineEntry) offlineEntryResponse {
	return offlineEntryResponse{
		ID:        e.ID,
		Post:      toPostResponse(&e.Post),
		SizeBytes: e.SizeBytes,
		CachedAt:  e.CachedAt,
		ExpiresAt: e.ExpiresAt,
	}
}

// SaveOffline は投稿をオフライン保存する。
// POST /api/offline-content/:postId
func (h *OfflineHandler) SaveOffline(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	postID := chi.URLParam(r, "postId")

	entry, err := h.service.Save(r.Context(), userID, postID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case model.ErrCodeAlreadyCached:
				h.collector.RecordOfflineConflict("already_cached")
			case model.ErrCodeQuotaExceeded:
				h.collector.RecordOfflineConflict("quota_exceeded")
			}
		}
		handleServiceError(w, err)
		return
	}

	h.collector.RecordOfflineSave()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toOfflineEntryResponse(entry))
}

// ListOffline は保存済みエントリの一覧と使用量を取得する。
// GET /api/offline-content
func (h *OfflineHandler) ListOffline(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	summary, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]offlineEntryResponse, 0, len(summary.Items))
	for i := range summary.Items {
		items = append(items, toOfflineEntryResponse(&summary.Items[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(offlineListResponse{
		Items:          items,
		TotalSizeBytes: summary.TotalSizeBytes,
		MaxSizeBytes:   summary.MaxSizeBytes,
	})
}

// RemoveOffline は保存エントリを削除する。
// DELETE /api/offline-content/:postId
func (h *OfflineHandler) RemoveOffline(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	postID := chi.URLParam(r, "postId")

	if err := h.service.Remove(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
