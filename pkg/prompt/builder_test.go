package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

func TestBuild_AllStages(t *testing.T) {
	b := Builder{}

	tests := []struct {
		stage    string
		contains []string
	}{
		{models.StageVerification, []string{"income statement", "balance sheet", "cash flow", "at least 10 financial parameters", VerdictValid, VerdictInvalid}},
		{models.StageAnalysis, []string{"growth drivers", "at least 3 major opportunities or risks", "2-3 actionable insights"}},
		{models.StageInvestment, []string{"buy/hold/sell", Disclaimer}},
		{models.StageRiskAssessment, []string{"low, medium or high", "inferred", "at least 2 practical risk mitigation"}},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			p, err := b.Build(tt.stage, Input{Query: "  Is revenue growing?  ", Document: "Revenue 100"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.System == "" {
				t.Error("expected a system prompt")
			}
			if !strings.HasPrefix(p.User, "User query: Is revenue growing?\n") {
				t.Errorf("query not first or not trimmed: %q", p.User[:40])
			}
			for _, want := range tt.contains {
				if !strings.Contains(p.User, want) {
					t.Errorf("user prompt missing %q", want)
				}
			}
			if !strings.Contains(p.User, "--- Financial document ---\nRevenue 100\n--- End of document ---") {
				t.Error("document block missing")
			}
		})
	}
}

func TestBuild_PriorSectionsAndSnippets(t *testing.T) {
	b := Builder{}
	p, err := b.Build(models.StageInvestment, Input{
		Query:    "q",
		Document: "doc",
		Prior: []Section{
			{Stage: models.StageVerification, Body: "Looks valid.\nVERDICT: VALID"},
			{Stage: models.StageAnalysis, Body: "  Margins expanded.  "},
		},
		Snippets: "1. Peer (link)\n   snippet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verIdx := strings.Index(p.User, "--- Document Verification (earlier stage) ---")
	anaIdx := strings.Index(p.User, "--- Financial Analysis (earlier stage) ---\nMargins expanded.\n")
	snipIdx := strings.Index(p.User, "--- Market context from web search ---")
	docIdx := strings.Index(p.User, "--- Financial document ---")

	if verIdx < 0 || anaIdx < 0 || snipIdx < 0 || docIdx < 0 {
		t.Fatalf("missing block: ver=%d ana=%d snip=%d doc=%d", verIdx, anaIdx, snipIdx, docIdx)
	}
	if !(verIdx < anaIdx && anaIdx < snipIdx && snipIdx < docIdx) {
		t.Errorf("blocks out of order: ver=%d ana=%d snip=%d doc=%d", verIdx, anaIdx, snipIdx, docIdx)
	}
}

func TestBuild_NoSnippetsBlockWhenEmpty(t *testing.T) {
	p, err := Builder{}.Build(models.StageAnalysis, Input{Query: "q", Document: "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(p.User, "Market context") {
		t.Error("unexpected market context block")
	}
}

func TestBuild_UnknownStage(t *testing.T) {
	_, err := Builder{}.Build("summarize", Input{})
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestSearchQuery(t *testing.T) {
	b := Builder{}

	tests := []struct {
		name     string
		stage    string
		query    string
		expected string
	}{
		{"analysis appends benchmarks", models.StageAnalysis, " Tesla Q2 ", "Tesla Q2 financial results industry benchmarks"},
		{"investment appends outlook", models.StageInvestment, "Tesla", "Tesla stock market outlook analyst consensus"},
		{"empty query", models.StageAnalysis, "", "financial results industry benchmarks"},
		{"verification does not search", models.StageVerification, "Tesla", ""},
		{"risk does not search", models.StageRiskAssessment, "Tesla", ""},
		{"unknown stage", "other", "Tesla", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.SearchQuery(tt.stage, tt.query); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	if Title(models.StageRiskAssessment) != "Risk Assessment" {
		t.Errorf("unexpected title: %s", Title(models.StageRiskAssessment))
	}
	if Title("custom") != "custom" {
		t.Errorf("unknown stages fall back to their name")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		expected string
	}{
		{"shorter than limit", "abc", 10, "abc"},
		{"exact limit", "abc", 3, "abc"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"does not split rune", "ab€cd", 4, "ab"},
		{"disabled", "abcdef", 0, "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ZeroValue(t *testing.T) {
	var b Builder
	if _, err := b.Build(models.StageAnalysis, Input{}); err != nil {
		t.Errorf("zero value builder failed: %v", err)
	}
}
