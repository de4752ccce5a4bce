// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// セッションは検証時に遅延削除されるが、二度とアクセスされない
// 放置セッションの行はこのジョブが定期的に回収する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionDeleter は期限切れセッションの一括削除を抽象化するインターフェース。
type SessionDeleter interface {
	// DeleteExpired はnowより前に期限切れになった全セッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepMetrics は削除件数を記録するメトリクスのインターフェース。
type SweepMetrics interface {
	RecordSessionsSwept(count int64)
}

// CleanupJob は期限切れセッションの定期削除ジョブ。
// 冪等な削除処理であり、削除対象がない場合でもエラーにならない。
type CleanupJob struct {
	sessions SessionDeleter
	metrics  SweepMetrics
	logger   *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionDeleter, metrics SweepMetrics, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run は現在時刻を基準に期限切れセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx, start)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.metrics.RecordSessionsSwept(deletedCount)

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
