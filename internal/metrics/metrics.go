// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は認証フローとセッションライフサイクルのメトリクスを収集する。
// auth.Metricsとworker向けの記録メソッドを実装する。
type Collector struct {
	loginCompleted    prometheus.Counter
	loginFailed       prometheus.Counter
	callbackRejected  prometheus.Counter
	sessionValidation *prometheus.CounterVec
	sessionsSwept     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepsake_login_completed_total",
			Help: "ログイン完了の合計数",
		}),
		loginFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepsake_login_failed_total",
			Help: "ログイン失敗（トークン交換・永続化エラー）の合計数",
		}),
		callbackRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepsake_oauth_callback_rejected_total",
			Help: "state/verifier検証で拒否されたOAuthコールバックの合計数",
		}),
		sessionValidation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keepsake_session_validation_total",
			Help: "セッション検証の結果別合計数",
		}, []string{"outcome"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepsake_sessions_swept_total",
			Help: "クリーンアップワーカーが削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.loginCompleted,
		c.loginFailed,
		c.callbackRejected,
		c.sessionValidation,
		c.sessionsSwept,
	)

	return c
}

// RecordLoginCompleted はログイン完了を記録する。
func (c *Collector) RecordLoginCompleted() {
	c.loginCompleted.Inc()
}

// RecordLoginFailed はログイン失敗を記録する。
func (c *Collector) RecordLoginFailed() {
	c.loginFailed.Inc()
}

// RecordCallbackRejected はコールバック拒否を記録する。
func (c *Collector) RecordCallbackRejected() {
	c.callbackRejected.Inc()
}

// RecordSessionValidation はセッション検証の結果を記録する。
// outcomeはvalid、expired、missing、errorのいずれか。
func (c *Collector) RecordSessionValidation(outcome string) {
	c.sessionValidation.WithLabelValues(outcome).Inc()
}

// RecordSessionsSwept はクリーンアップワーカーが削除したセッション数を記録する。
func (c *Collector) RecordSessionsSwept(count int64) {
	c.sessionsSwept.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
