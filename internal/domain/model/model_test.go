//go:build !integration

package model

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunkDocuments(t *testing.T) {
	docs := func(n int) []Document {
		out := make([]Document, n)
		for i := range out {
			out[i] = Document{ID: fmt.Sprintf("d%d", i)}
		}
		return out
	}

	tests := []struct {
		name      string
		docs      int
		size      int
		wantSizes []int
	}{
		{"empty input", 0, 10, nil},
		{"single partial chunk", 3, 10, []int{3}},
		{"exact multiple", 20, 10, []int{10, 10}},
		{"trailing remainder", 25, 10, []int{10, 10, 5}},
		{"size one", 3, 1, []int{1, 1, 1}},
		{"non-positive size clamps to one", 2, 0, []int{1, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks := ChunkDocuments(docs(tc.docs), tc.size)
			if len(chunks) != len(tc.wantSizes) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tc.wantSizes))
			}
			seen := 0
			for i, c := range chunks {
				if len(c) != tc.wantSizes[i] {
					t.Errorf("chunk %d size = %d, want %d", i, len(c), tc.wantSizes[i])
				}
				for _, d := range c {
					if d.ID != fmt.Sprintf("d%d", seen) {
						t.Errorf("chunk %d out of order: got %s at position %d", i, d.ID, seen)
					}
					seen++
				}
			}
			if seen != tc.docs {
				t.Errorf("chunks carry %d documents, want %d", seen, tc.docs)
			}
		})
	}
}

func TestRiskForAccuracy(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     RiskLevel
	}{
		{100, RiskLow},
		{85, RiskLow},
		{84.9, RiskMedium},
		{70, RiskMedium},
		{69.9, RiskHigh},
		{50, RiskHigh},
		{49.9, RiskCritical},
		{0, RiskCritical},
	}
	for _, tc := range tests {
		if got := RiskForAccuracy(tc.accuracy); got != tc.want {
			t.Errorf("RiskForAccuracy(%v) = %s, want %s", tc.accuracy, got, tc.want)
		}
	}
}

func TestCostFor(t *testing.T) {
	usage := &TokenUsage{InputTokens: 2000, OutputTokens: 500}

	t.Run("known model", func(t *testing.T) {
		got := CostFor("gpt-4o-mini", usage)
		want := 2.0*0.00015 + 0.5*0.0006
		if got != want {
			t.Errorf("CostFor = %v, want %v", got, want)
		}
	})
	t.Run("unknown model costs nothing", func(t *testing.T) {
		if got := CostFor("some-local-model", usage); got != 0 {
			t.Errorf("CostFor = %v, want 0", got)
		}
	})
	t.Run("absent usage costs nothing", func(t *testing.T) {
		if got := CostFor("gpt-4o", nil); got != 0 {
			t.Errorf("CostFor = %v, want 0", got)
		}
	})
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short"); got != "short" {
		t.Errorf("short content must pass through, got %q", got)
	}
	long := strings.Repeat("a", maxExcerptLen+50)
	if got := Truncate(long); len(got) != maxExcerptLen {
		t.Errorf("truncated length = %d, want %d", len(got), maxExcerptLen)
	}
}

func TestBatchStatusTerminal(t *testing.T) {
	for status, want := range map[BatchStatus]bool{
		BatchStatusPreparing: false,
		BatchStatusReady:     false,
		BatchStatusCompleted: true,
		BatchStatusFailed:    true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestAnalysisOptionsModel(t *testing.T) {
	if got := (AnalysisOptions{"model": "gpt-4o"}).Model(); got != "gpt-4o" {
		t.Errorf("Model() = %q", got)
	}
	if got := (AnalysisOptions{"model": 42}).Model(); got != "" {
		t.Errorf("non-string model should read empty, got %q", got)
	}
	var nilOpts AnalysisOptions
	if got := nilOpts.Model(); got != "" {
		t.Errorf("nil options should read empty, got %q", got)
	}
}
