// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kanushi/kanushi-api/internal/metrics"
	"github.com/kanushi/kanushi-api/internal/middleware"
	"github.com/kanushi/kanushi-api/internal/model"
	"github.com/kanushi/kanushi-api/internal/validation"
)

// FollowServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type FollowServiceInterface interface {
	// Create は検証済みの入力からフォローエッジを作成する。
	Create(ctx context.Context, followerID int64, in *validation.ValidatedFollow) (*model.Follow, error)
	// Unfollow はフォローエッジを削除する。
	Unfollow(ctx context.Context, followerID, followID int64) error
	// Get は操作主体が所有するエッジを1件取得する。
	Get(ctx context.Context, followerID, followID int64) (*model.Follow, error)
	// List はフォロワーの全エッジを作成順で返す。
	List(ctx context.Context, followerID int64) ([]*model.Follow, error)
}

// FollowHandler はフォロー関係管理のHTTPハンドラー。
type FollowHandler struct {
	service   FollowServiceInterface
	collector metrics.MetricsCollector
}

// NewFollowHandler はFollowHandlerを生成する。
func NewFollowHandler(service FollowServiceInterface, collector metrics.MetricsCollector) *FollowHandler {
	return &FollowHandler{
		service:   service,
		collector: collector,
	}
}

// followResponse はフォローエッジのAPIレスポンス。
type followResponse struct {
	ID         int64     `json:"id"`
	FollowerID int64     `json:"followerId"`
	FolloweeID int64     `json:"followeeId"`
	FollowType string    `json:"followType"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toFollowResponse(f *model.Follow) followResponse {
	return followResponse{
		ID:         f.ID,
		FollowerID: f.FollowerID,
		FolloweeID: f.FolloweeID,
		FollowType: string(f.Type),
		Reason:     f.Reason,
		CreatedAt:  f.CreatedAt,
	}
}

// CreateFollow はフォローエッジを作成する。
// POST /api/follows
func (h *FollowHandler) CreateFollow(w http.ResponseWriter, r *http.Request) {
	followerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	var req validation.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	in, vErr := validation.ValidateFollowRequest(followerID, req)
	if vErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, vErr)
		return
	}

	created, err := h.service.Create(r.Context(), followerID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordFollowCreated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFollowResponse(created))
}

// Unfollow はフォローエッジを削除する。
// DELETE /api/follows/:followId
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	followID, vErr := validation.ValidateUnfollowID(chi.URLParam(r, "followId"))
	if vErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, vErr)
		return
	}

	if err := h.service.Unfollow(r.Context(), followerID, followID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetFollow はフォローエッジを1件取得する。
// アンフォロー済みのエッジはFOLLOW_NOT_FOUNDになる。
// GET /api/follows/:followId
func (h *FollowHandler) GetFollow(w http.ResponseWriter, r *http.Request) {
	followerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	followID, vErr := validation.ValidateUnfollowID(chi.URLParam(r, "followId"))
	if vErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, vErr)
		return
	}

	edge, err := h.service.Get(r.Context(), followerID, followID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFollowResponse(edge))
}

// ListFollows はフォロー中のエッジ一覧を取得する。
// GET /api/follows
func (h *FollowHandler) ListFollows(w http.ResponseWriter, r *http.Request) {
	followerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	edges, err := h.service.List(r.Context(), followerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]followResponse, 0, len(edges))
	for _, edge := range edges {
		resp = append(resp, toFollowResponse(edge))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// apiErrorResponse はAPIエラーレスポンスのJSON表現。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidFolloweeID,
		model.ErrCodeInvalidFollowType,
		model.ErrCodeMissingReason,
		model.ErrCodeInvalidFollowIDFormat,
		model.ErrCodeSelfFollowForbidden,
		model.ErrCodeInvalidContentType,
		model.ErrCodeMissingTextContent,
		model.ErrCodeInvalidMediaURL:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateFollow, model.ErrCodeAlreadyCached:
		return http.StatusConflict
	case model.ErrCodeQuotaExceeded:
		return http.StatusInsufficientStorage
	case model.ErrCodeFollowNotFound, model.ErrCodePostNotFound, model.ErrCodeOfflineEntryNotFound:
		return http.StatusNotFound
	case model.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
