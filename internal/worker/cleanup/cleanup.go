// Package cleanup はオフラインキャッシュの期限切れエントリ削除ジョブを提供する。
// expires_atを過ぎたエントリを日次バッチで物理削除する。
// 期限切れエントリは読み取り・容量クエリから既に除外されているため、
// このジョブはストレージ回収のみを担い、削除が遅れても外部挙動は変わらない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kanushi/kanushi-api/internal/metrics"
	"github.com/kanushi/kanushi-api/internal/repository"
)

// CleanupJob は期限切れオフラインエントリの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	repo      repository.OfflineContentRepository
	logger    *slog.Logger
	collector metrics.MetricsCollector
	now       func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(repo repository.OfflineContentRepository, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	return &CleanupJob{
		repo:      repo,
		logger:    logger,
		collector: collector,
		now:       time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替えたCleanupJobを返す。テスト用。
func (j *CleanupJob) WithClock(now func() time.Time) *CleanupJob {
	clone := *j
	clone.now = now
	return &clone
}

// Run は期限切れのオフラインエントリを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.repo.DeleteExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("オフラインキャッシュのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れエントリの削除に失敗: %w", err)
	}

	j.collector.RecordCleanupDeleted(deletedCount)

	duration := time.Since(start)
	j.logger.Info("オフラインキャッシュのクリーンアップが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start はクリーンアップジョブを起動直後に1回実行し、以後interval間隔で
// 定期実行する。contextのキャンセルで停止する。ブロッキング。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
