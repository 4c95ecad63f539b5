// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordFollowCreated()
	RecordPostCreated()
	RecordPostRateLimited()
	RecordOfflineSave()
	RecordOfflineConflict(reason string)
	RecordCleanupDeleted(count int64)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	followCreated   prometheus.Counter
	postCreated     prometheus.Counter
	postRateLimited prometheus.Counter
	offlineSave     prometheus.Counter
	offlineConflict *prometheus.CounterVec
	cleanupDeleted  prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		followCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanushi_follows_created_total",
			Help: "作成されたフォローエッジの合計数",
		}),
		postCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanushi_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		postRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanushi_posts_rate_limited_total",
			Help: "レート制限で拒否された投稿リクエストの合計数",
		}),
		offlineSave: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanushi_offline_saves_total",
			Help: "オフライン保存成功の合計数",
		}),
		offlineConflict: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanushi_offline_conflicts_total",
			Help: "オフライン保存の競合（already_cached / quota_exceeded）の合計数",
		}, []string{"reason"}),
		cleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanushi_offline_cleanup_deleted_total",
			Help: "クリーンアップで削除された期限切れエントリの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanushi_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kanushi_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.followCreated,
		c.postCreated,
		c.postRateLimited,
		c.offlineSave,
		c.offlineConflict,
		c.cleanupDeleted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordFollowCreated はフォロー作成を記録する。
func (c *Collector) RecordFollowCreated() {
	c.followCreated.Inc()
}

// RecordPostCreated は投稿作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postCreated.Inc()
}

// RecordPostRateLimited はレート制限による投稿拒否を記録する。
func (c *Collector) RecordPostRateLimited() {
	c.postRateLimited.Inc()
}

// RecordOfflineSave はオフライン保存成功を記録する。
func (c *Collector) RecordOfflineSave() {
	c.offlineSave.Inc()
}

// RecordOfflineConflict はオフライン保存の競合を理由別に記録する。
func (c *Collector) RecordOfflineConflict(reason string) {
	c.offlineConflict.WithLabelValues(reason).Inc()
}

// RecordCleanupDeleted はクリーンアップによる削除件数を記録する。
func (c *Collector) RecordCleanupDeleted(count int64) {
	c.cleanupDeleted.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// ルーターが/metricsに直接マウントする。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
