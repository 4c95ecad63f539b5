package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/kanushi/kanushi-api/internal/model"
)

// pgUniqueViolation は一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// isUniqueViolation はエラーが一意制約違反かを返す。
// 対象インデックスを区別する場合はconstraint名も確認する。
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != pgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// wrapStorageError はドライバエラーをリトライ可否で分類してラップする。
// 接続断・リソース枯渇・シリアライゼーション失敗はTransientStorageError
// としてラップし、サービス層の1回限りの自動リトライ対象にする。
// それ以外は通常のエラーとしてそのままラップする。
func wrapStorageError(op string, err error) error {
	if isTransientDriverError(err) {
		return fmt.Errorf("%s: %w", op, &model.TransientStorageError{Err: err})
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isTransientDriverError は再実行で成功しうるドライバエラーかを判定する。
func isTransientDriverError(err error) bool {
	if err == nil {
		return false
	}

	// ネットワーク層の障害
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case strings.HasPrefix(code, "08"): // connection exception
			return true
		case strings.HasPrefix(code, "53"): // insufficient resources
			return true
		case strings.HasPrefix(code, "57"): // operator intervention (shutdown等)
			return true
		case code == "40001" || code == "40P01": // serialization failure / deadlock
			return true
		}
	}

	return false
}
