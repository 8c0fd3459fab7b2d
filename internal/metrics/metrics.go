// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 利用者解決の結果ラベル。
const (
	ResolutionMatched  = "matched"
	ResolutionFallback = "fallback"
	ResolutionEmpty    = "empty"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ディレクトリクライアントやギャラリーサービスから利用する。
type MetricsCollector interface {
	RecordDirectoryRequest(endpoint string, statusCode int, duration time.Duration)
	RecordDirectoryFailure(endpoint string)
	RecordResolution(outcome string)
	RecordAccessDenied()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	directoryRequests *prometheus.CounterVec
	directoryFailures *prometheus.CounterVec
	directoryLatency  *prometheus.HistogramVec
	resolutions       *prometheus.CounterVec
	accessDenied      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		directoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photoapp_directory_requests_total",
			Help: "ディレクトリAPIへのリクエスト数（エンドポイント、ステータス別）",
		}, []string{"endpoint", "status_code"}),
		directoryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photoapp_directory_failures_total",
			Help: "ディレクトリAPIの通信失敗数",
		}, []string{"endpoint"}),
		directoryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photoapp_directory_latency_seconds",
			Help:    "ディレクトリAPIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photoapp_identity_resolutions_total",
			Help: "メールアドレスからディレクトリユーザーへの解決結果",
		}, []string{"outcome"}),
		accessDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photoapp_album_access_denied_total",
			Help: "所有していないアルバムへのアクセス拒否数",
		}),
	}

	reg.MustRegister(
		c.directoryRequests,
		c.directoryFailures,
		c.directoryLatency,
		c.resolutions,
		c.accessDenied,
	)

	return c
}

// RecordDirectoryRequest はディレクトリAPIの応答を記録する。
func (c *Collector) RecordDirectoryRequest(endpoint string, statusCode int, duration time.Duration) {
	c.directoryRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.directoryLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordDirectoryFailure は応答を得られなかった通信失敗を記録する。
func (c *Collector) RecordDirectoryFailure(endpoint string) {
	c.directoryFailures.WithLabelValues(endpoint).Inc()
}

// RecordResolution は利用者解決の結果を記録する。
func (c *Collector) RecordResolution(outcome string) {
	c.resolutions.WithLabelValues(outcome).Inc()
}

// RecordAccessDenied はアルバムのアクセス拒否を記録する。
func (c *Collector) RecordAccessDenied() {
	c.accessDenied.Inc()
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordDirectoryRequest(string, int, time.Duration) {}
func (Nop) RecordDirectoryFailure(string)                     {}
func (Nop) RecordResolution(string)                           {}
func (Nop) RecordAccessDenied()                               {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
