package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/kanushi/kanushi-api/internal/model"
)

// PostgresOfflineRepoはOfflineContentRepositoryインターフェースを満たすことを検証
func TestPostgresOfflineRepo_ImplementsInterface(t *testing.T) {
	var _ OfflineContentRepository = (*PostgresOfflineRepo)(nil)
}

func TestNewPostgresOfflineRepo_Initializes(t *testing.T) {
	repo := NewPostgresOfflineRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func testOfflineEntry(now time.Time) *model.OfflineContent {
	return &model.OfflineContent{
		ID:        "entry-1",
		UserID:    7,
		PostID:    "post-1",
		SizeBytes: 1024,
		CachedAt:  now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

// Insertはユーザー単位のロック取得→期限切れ行の遅延削除→ガード付き挿入を
// 1トランザクションで行う。期限切れエントリが物理削除前に残っていても、
// 挿入前の削除で一意制約から外れるため同じ投稿を再保存できる。
func TestPostgresOfflineRepo_Insert_PurgesExpiredBeforeInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now()
	entry := testOfflineEntry(now)
	repo := NewPostgresOfflineRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(entry.UserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// 同一投稿の期限切れ行が残っているケース: 削除1件
	mock.ExpectExec("DELETE FROM offline_content").
		WithArgs(entry.UserID, entry.CachedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO offline_content").
		WithArgs(entry.ID, entry.UserID, entry.PostID, entry.SizeBytes, entry.CachedAt, entry.ExpiresAt, int64(524288000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Insert(context.Background(), entry, 524288000); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 容量ガードに弾かれた場合はQUOTA_EXCEEDEDを返し、何もコミットしない。
func TestPostgresOfflineRepo_Insert_QuotaExceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now()
	entry := testOfflineEntry(now)
	repo := NewPostgresOfflineRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(entry.UserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM offline_content").
		WithArgs(entry.UserID, entry.CachedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// ガード付きINSERTが0行: 合計が上限を超える
	mock.ExpectExec("INSERT INTO offline_content").
		WithArgs(entry.ID, entry.UserID, entry.PostID, entry.SizeBytes, entry.CachedAt, entry.ExpiresAt, int64(524288000)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Insert(context.Background(), entry, 524288000)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeQuotaExceeded {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeQuotaExceeded)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 非期限切れの既存行と衝突した場合はALREADY_CACHEDを返す。
func TestPostgresOfflineRepo_Insert_AlreadyCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now()
	entry := testOfflineEntry(now)
	repo := NewPostgresOfflineRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(entry.UserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// 既存行は期限内なので削除されない
	mock.ExpectExec("DELETE FROM offline_content").
		WithArgs(entry.UserID, entry.CachedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO offline_content").
		WithArgs(entry.ID, entry.UserID, entry.PostID, entry.SizeBytes, entry.CachedAt, entry.ExpiresAt, int64(524288000)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_offline_user_post"})
	mock.ExpectRollback()

	err = repo.Insert(context.Background(), entry, 524288000)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeAlreadyCached {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeAlreadyCached)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// OfflineContentモデルの期限判定を検証
func TestOfflineContentModel_IsExpired(t *testing.T) {
	now := time.Now()
	entry := &model.OfflineContent{
		ID:        "entry-1",
		UserID:    1,
		PostID:    "post-1",
		SizeBytes: 1024,
		CachedAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	}

	if entry.IsExpired(now) {
		t.Error("entry expiring in the future should not be expired")
	}
	if !entry.IsExpired(now.Add(time.Hour)) {
		t.Error("entry at its expiry instant should be expired")
	}
	if !entry.IsExpired(now.Add(2 * time.Hour)) {
		t.Error("entry past its expiry should be expired")
	}
}
