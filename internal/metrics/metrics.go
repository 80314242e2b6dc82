// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AnalysisCollector は分析メトリクス収集のインターフェース。
// オーケストレーターやバッチワーカーから利用する。
type AnalysisCollector interface {
	RecordAnalysisSuccess()
	RecordAnalysisFailure(reason string)
	RecordAnalysisLatency(duration time.Duration)
	RecordInsightLatency(duration time.Duration)
	RecordInsightFailure()
	RecordScoresPersisted(count int)
	RecordPatternsPersisted(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	analysisSuccess   prometheus.Counter
	analysisFail      *prometheus.CounterVec
	analysisLatency   prometheus.Histogram
	insightLatency    prometheus.Histogram
	insightFail       prometheus.Counter
	scoresPersisted   prometheus.Counter
	patternsPersisted prometheus.Counter
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		analysisSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeat_analysis_success_total",
			Help: "バーンアウト分析成功の合計数",
		}),
		analysisFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeat_analysis_fail_total",
			Help: "バーンアウト分析失敗の合計数（原因別）",
		}, []string{"reason"}),
		analysisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellbeat_analysis_latency_seconds",
			Help:    "バーンアウト分析のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		insightLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellbeat_insight_latency_seconds",
			Help:    "インサイト生成サービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		insightFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeat_insight_fail_total",
			Help: "インサイト生成サービス呼び出し失敗の合計数",
		}),
		scoresPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeat_scores_persisted_total",
			Help: "永続化されたバーンアウトスコアの合計数",
		}),
		patternsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeat_patterns_persisted_total",
			Help: "永続化されたストレスパターンの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeat_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.analysisSuccess,
		c.analysisFail,
		c.analysisLatency,
		c.insightLatency,
		c.insightFail,
		c.scoresPersisted,
		c.patternsPersisted,
		c.httpStatus,
	)

	return c
}

// RecordAnalysisSuccess は分析成功を記録する。
func (c *Collector) RecordAnalysisSuccess() {
	c.analysisSuccess.Inc()
}

// RecordAnalysisFailure は分析失敗を原因ラベル付きで記録する。
func (c *Collector) RecordAnalysisFailure(reason string) {
	c.analysisFail.WithLabelValues(reason).Inc()
}

// RecordAnalysisLatency は分析のレイテンシを記録する。
func (c *Collector) RecordAnalysisLatency(duration time.Duration) {
	c.analysisLatency.Observe(duration.Seconds())
}

// RecordInsightLatency はインサイト呼び出しのレイテンシを記録する。
func (c *Collector) RecordInsightLatency(duration time.Duration) {
	c.insightLatency.Observe(duration.Seconds())
}

// RecordInsightFailure はインサイト呼び出し失敗を記録する。
func (c *Collector) RecordInsightFailure() {
	c.insightFail.Inc()
}

// RecordScoresPersisted は永続化されたスコア数を記録する。
func (c *Collector) RecordScoresPersisted(count int) {
	c.scoresPersisted.Add(float64(count))
}

// RecordPatternsPersisted は永続化されたパターン数を記録する。
func (c *Collector) RecordPatternsPersisted(count int) {
	c.patternsPersisted.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないAnalysisCollector。テスト用。
type NopCollector struct{}

func (NopCollector) RecordAnalysisSuccess()                     {}
func (NopCollector) RecordAnalysisFailure(reason string)        {}
func (NopCollector) RecordAnalysisLatency(time.Duration)        {}
func (NopCollector) RecordInsightLatency(time.Duration)         {}
func (NopCollector) RecordInsightFailure()                      {}
func (NopCollector) RecordScoresPersisted(count int)            {}
func (NopCollector) RecordPatternsPersisted(count int)          {}
func (NopCollector) RecordHTTPStatus(statusCode int)            {}
