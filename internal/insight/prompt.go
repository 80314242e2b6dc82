package insight

import (
	"fmt"
	"strings"

	"github.com/hitoshi/wellbeat/internal/pattern"
)

// systemPrompt はインサイト生成のロール指定。
// 出力はプレーンテキストのナラティブに限定し、数値の再計算は求めない。
const systemPrompt = "You are a wellness assistant. Given a burnout risk " +
	"score and detected schedule stress patterns, write a short, supportive " +
	"narrative (3-6 sentences) about the user's workload, followed by " +
	"concrete suggestions. Plain text only, no markdown."

// buildPrompt はリクエストからユーザープロンプトを決定論的に構築する。
func buildPrompt(req AnnotationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Burnout risk score: %.1f out of 10 (%s).\n", req.Score, req.Level)
	fmt.Fprintf(&b, "Calendar events analyzed: %d.\n", req.EventCount)
	fmt.Fprintf(&b, "Metric breakdown: meeting density %.1f, work hours %.1f, "+
		"breaks %.1f, weekend work %.1f, intensity %.1f.\n",
		req.Metrics.MeetingDensity, req.Metrics.WorkHours,
		req.Metrics.BreakScore, req.Metrics.WeekendWork, req.Metrics.Intensity)

	if len(req.Patterns) == 0 {
		b.WriteString("No stress patterns were detected.\n")
		return b.String()
	}

	b.WriteString("Detected stress patterns:\n")
	for _, p := range req.Patterns {
		fmt.Fprintf(&b, "- [%s] %s\n", p.Severity, pattern.Describe(p))
	}

	return b.String()
}
