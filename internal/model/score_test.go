package model

import "testing"

// リスクレベルの閾値（境界値を含む）を検証
func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLevelMinimal},
		{2.49, RiskLevelMinimal},
		{2.5, RiskLevelLow},
		{4.99, RiskLevelLow},
		{5, RiskLevelModerate},
		{7.49, RiskLevelModerate},
		{7.5, RiskLevelHigh},
		{10, RiskLevelHigh},
	}

	for _, tc := range cases {
		if got := RiskLevelFor(tc.score); got != tc.want {
			t.Errorf("RiskLevelFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

// リスクレベルのラベル文字列を検証
func TestRiskLevelLabels(t *testing.T) {
	if RiskLevelHigh != "High Risk" {
		t.Errorf("RiskLevelHigh = %q, want %q", RiskLevelHigh, "High Risk")
	}
	if RiskLevelModerate != "Moderate Risk" {
		t.Errorf("RiskLevelModerate = %q, want %q", RiskLevelModerate, "Moderate Risk")
	}
	if RiskLevelLow != "Low Risk" {
		t.Errorf("RiskLevelLow = %q, want %q", RiskLevelLow, "Low Risk")
	}
	if RiskLevelMinimal != "Minimal Risk" {
		t.Errorf("RiskLevelMinimal = %q, want %q", RiskLevelMinimal, "Minimal Risk")
	}
}
