package insight

import "strings"

// maxExtractedRecommendations は自由記述から抽出する推奨行の上限。
const maxExtractedRecommendations = 3

// recommendationMarkers は推奨らしい行を判定する部分文字列。
var recommendationMarkers = []string{"recommend", "suggest", "consider"}

// ExtractRecommendations はインサイトの自由記述から「推奨らしい」行を
// 最大3件まで抽出する。行に recommend / suggest / consider のいずれかが
// 含まれるかの部分一致による素朴なヒューリスティックであり、
// 0件になることは正常（エラーではない）。挙動互換のため意図的に
// これ以上精緻化しない。
func ExtractRecommendations(text string) []string {
	recs := []string{}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		lower := strings.ToLower(trimmed)
		for _, marker := range recommendationMarkers {
			if strings.Contains(lower, marker) {
				recs = append(recs, trimmed)
				break
			}
		}

		if len(recs) >= maxExtractedRecommendations {
			break
		}
	}

	return recs
}
