package repository

import (
	"context"
	"database/sql"

	"github.com/kanushi/kanushi-api/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content_type, text_content, media_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.AuthorID, post.ContentType, post.TextContent, post.MediaURL, post.CreatedAt,
	)
	if err != nil {
		return wrapStorageError("投稿の作成に失敗しました", err)
	}
	return nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, content_type, text_content, media_url, created_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.AuthorID, &post.ContentType, &post.TextContent, &post.MediaURL, &post.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorageError("投稿の取得に失敗しました", err)
	}

	return post, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
