package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kanushi/kanushi-api/internal/model"
)

// PostgresOfflineRepo はPostgreSQLを使用したオフラインキャッシュリポジトリ。
type PostgresOfflineRepo struct {
	db *sql.DB
}

// NewPostgresOfflineRepo はPostgresOfflineRepoを生成する。
func NewPostgresOfflineRepo(db *sql.DB) *PostgresOfflineRepo {
	return &PostgresOfflineRepo{db: db}
}

// Insert はエントリを作成する。
// 同一ユーザーの並行保存はトランザクション内のアドバイザリロックで
// 直列化する。READ COMMITTEDでは容量合計のスナップショットが並行
// トランザクションの未コミット行を含まないため、ロックなしのガード付き
// INSERT単文では上限を突き抜けうる。
// 挿入前にそのユーザーの期限切れ行を遅延削除するため、期限切れ後の
// 再保存は一意制約に衝突せず、容量合計にも算入されない。
func (r *PostgresOfflineRepo) Insert(ctx context.Context, entry *model.OfflineContent, maxSizeBytes int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorageError("トランザクションの開始に失敗しました", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1)`, entry.UserID,
	); err != nil {
		return wrapStorageError("ユーザーロックの取得に失敗しました", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM offline_content WHERE user_id = $1 AND expires_at <= $2`,
		entry.UserID, entry.CachedAt,
	); err != nil {
		return wrapStorageError("期限切れエントリの削除に失敗しました", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO offline_content (id, user_id, post_id, size_bytes, cached_at, expires_at)
		 SELECT $1, $2, $3, $4, $5, $6
		 WHERE (
		     SELECT COALESCE(SUM(size_bytes), 0)
		     FROM offline_content
		     WHERE user_id = $2
		 ) + $4 <= $7`,
		entry.ID, entry.UserID, entry.PostID, entry.SizeBytes, entry.CachedAt, entry.ExpiresAt, maxSizeBytes,
	)
	if err != nil {
		if isUniqueViolation(err, "idx_offline_user_post") {
			return model.NewAlreadyCachedError(entry.PostID)
		}
		return wrapStorageError("オフラインエントリの作成に失敗しました", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapStorageError("挿入結果の取得に失敗しました", err)
	}
	if rowsAffected == 0 {
		return model.NewQuotaExceededError(maxSizeBytes)
	}

	if err := tx.Commit(); err != nil {
		return wrapStorageError("トランザクションのコミットに失敗しました", err)
	}
	return nil
}

// ListActive は指定ユーザーの非期限切れエントリを投稿本体付きで返す。
// 期限切れエントリは物理削除前でも決して返さない。
func (r *PostgresOfflineRepo) ListActive(ctx context.Context, userID int64, now time.Time) ([]model.OfflineEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			o.id, o.user_id, o.post_id, o.size_bytes, o.cached_at, o.expires_at,
			p.id, p.author_id, p.content_type, p.text_content, p.media_url, p.created_at
		 FROM offline_content o
		 JOIN posts p ON o.post_id = p.id
		 WHERE o.user_id = $1 AND o.expires_at > $2
		 ORDER BY o.cached_at DESC`,
		userID, now,
	)
	if err != nil {
		return nil, wrapStorageError("オフライン一覧の取得に失敗しました", err)
	}
	defer rows.Close()

	var entries []model.OfflineEntry
	for rows.Next() {
		var e model.OfflineEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.PostID, &e.SizeBytes, &e.CachedAt, &e.ExpiresAt,
			&e.Post.ID, &e.Post.AuthorID, &e.Post.ContentType, &e.Post.TextContent, &e.Post.MediaURL, &e.Post.CreatedAt,
		); err != nil {
			return nil, wrapStorageError("オフライン行の読み取りに失敗しました", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageError("オフライン一覧の走査に失敗しました", err)
	}
	return entries, nil
}

// Delete は指定ユーザーの指定投稿のエントリを削除する。
// 削除対象が存在しない場合はfalseを返す。
func (r *PostgresOfflineRepo) Delete(ctx context.Context, userID int64, postID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM offline_content WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	)
	if err != nil {
		return false, wrapStorageError("オフラインエントリの削除に失敗しました", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapStorageError("削除結果の取得に失敗しました", err)
	}
	return rowsAffected > 0, nil
}

// DeleteExpired は期限切れエントリを削除し、削除件数を返す。冪等。
func (r *PostgresOfflineRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM offline_content WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, wrapStorageError("期限切れエントリの削除に失敗しました", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, wrapStorageError("削除件数の取得に失敗しました", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ OfflineContentRepository = (*PostgresOfflineRepo)(nil)
