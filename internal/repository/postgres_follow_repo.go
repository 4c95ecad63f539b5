package repository

import (
	"context"
	"database/sql"

	"github.com/kanushi/kanushi-api/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Create はフォローエッジを作成する。IDと作成時刻はサーバー側で採番される。
// 重複エッジは一意インデックスidx_follows_pairで検出し、読み取り+書き込みの
// 競合なしにDUPLICATE_FOLLOWへ変換する。
func (r *PostgresFollowRepo) Create(ctx context.Context, follow *model.Follow) (*model.Follow, error) {
	// watchフォローのreasonはNULLで保存する（CHECK制約と整合させる）
	var reason sql.NullString
	if follow.Type == model.FollowTypeFamily {
		reason = sql.NullString{String: follow.Reason, Valid: true}
	}

	created := &model.Follow{
		FollowerID: follow.FollowerID,
		FolloweeID: follow.FolloweeID,
		Type:       follow.Type,
		Reason:     follow.Reason,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO follows (follower_id, followee_id, follow_type, reason)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		follow.FollowerID, follow.FolloweeID, follow.Type, reason,
	).Scan(&created.ID, &created.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "idx_follows_pair") {
			return nil, model.NewDuplicateFollowError()
		}
		return nil, wrapStorageError("フォローの作成に失敗しました", err)
	}

	return created, nil
}

// FindByID は指定IDのエッジを取得する。見つからない場合はnilを返す。
func (r *PostgresFollowRepo) FindByID(ctx context.Context, id int64) (*model.Follow, error) {
	follow := &model.Follow{}
	var reason sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, follower_id, followee_id, follow_type, reason, created_at
		 FROM follows WHERE id = $1`,
		id,
	).Scan(&follow.ID, &follow.FollowerID, &follow.FolloweeID, &follow.Type, &reason, &follow.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorageError("フォローの取得に失敗しました", err)
	}

	follow.Reason = reason.String
	return follow, nil
}

// Delete は指定IDかつ指定フォロワーが所有するエッジを削除する。
// 削除対象が存在しない場合はfalseを返す。
func (r *PostgresFollowRepo) Delete(ctx context.Context, id, followerID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE id = $1 AND follower_id = $2`,
		id, followerID,
	)
	if err != nil {
		return false, wrapStorageError("フォローの削除に失敗しました", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapStorageError("削除結果の取得に失敗しました", err)
	}
	return rowsAffected > 0, nil
}

// ListByFollower はフォロワーの全エッジを作成順で返す。
func (r *PostgresFollowRepo) ListByFollower(ctx context.Context, followerID int64) ([]*model.Follow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, follower_id, followee_id, follow_type, reason, created_at
		 FROM follows WHERE follower_id = $1 ORDER BY created_at ASC`,
		followerID,
	)
	if err != nil {
		return nil, wrapStorageError("フォロー一覧の取得に失敗しました", err)
	}
	defer rows.Close()

	var follows []*model.Follow
	for rows.Next() {
		follow := &model.Follow{}
		var reason sql.NullString
		if err := rows.Scan(&follow.ID, &follow.FollowerID, &follow.FolloweeID, &follow.Type, &reason, &follow.CreatedAt); err != nil {
			return nil, wrapStorageError("フォロー行の読み取りに失敗しました", err)
		}
		follow.Reason = reason.String
		follows = append(follows, follow)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageError("フォロー一覧の走査に失敗しました", err)
	}
	return follows, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
