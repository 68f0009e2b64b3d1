// Package prompt renders the LLM prompts for each analysis stage.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// Disclaimer must appear in every investment section.
const Disclaimer = "This is not financial advice."

const (
	VerdictValid   = "VERDICT: VALID"
	VerdictInvalid = "VERDICT: INVALID"
)

var ErrUnknownStage = errors.New("unknown stage")

// Section is the output of an earlier stage.
type Section struct {
	Stage string
	Body  string
}

// Input is everything a stage prompt may draw on.
type Input struct {
	Query    string
	Document string
	Prior    []Section
	Snippets string
}

type template struct {
	title  string
	system string
	task   string
	expect []string
	search string
}

var templates = map[string]template{
	models.StageVerification: {
		title: "Document Verification",
		system: "You are a compliance-focused financial documentation specialist. " +
			"You confirm that a file is a legitimate, complete financial report before it is analyzed. " +
			"You are methodical and detail-oriented, and you flag incomplete, suspicious or irrelevant files.",
		task: "Verify that the document below is a legitimate, complete financial report (for example a 10-K, 10-Q or quarterly update). " +
			"Check for the income statement, balance sheet and cash flow statement, and for at least 10 financial parameters.",
		expect: []string{
			"State whether the document is a valid financial report (yes/no).",
			"List the key financial statements and metrics found (up to 10).",
			"Note any missing or suspicious elements.",
			"Give a brief summary of the report's completeness and reliability.",
			"End with a single line that reads exactly " + VerdictValid + " or " + VerdictInvalid + ".",
		},
	},
	models.StageAnalysis: {
		title: "Financial Analysis",
		system: "You are a senior financial analyst experienced with earnings reports, SEC filings and investor presentations. " +
			"Your analysis is evidence-based and cites figures directly from the document. " +
			"You avoid speculation and never give personalized investment advice.",
		task: "Answer the user's query using sound financial analysis of the document below. " +
			"Extract revenues, profitability, debt, cash flow and trends. Where market context is provided, compare performance against it.",
		expect: []string{
			"Summarize key financial metrics (revenue, net income, margins, liquidity ratios, debt ratios).",
			"Give a concise summary of the company's financial health and its growth drivers.",
			"Highlight at least 3 major opportunities or risks detected in the document.",
			"Offer 2-3 actionable insights based on the findings.",
			"Use clear, structured language suitable for investors and analysts.",
		},
		search: "financial results industry benchmarks",
	},
	models.StageInvestment: {
		title: "Investment Commentary",
		system: "You are an investment research writer producing objective, balanced commentary for institutional research notes. " +
			"Your commentary is non-personalized. You avoid hype, clarify uncertainty, and always include the sentence \"" + Disclaimer + "\"",
		task: "Review the document below and provide a structured investment analysis. " +
			"Identify opportunities and risks, and make clear buy/hold/sell recommendations supported by financial reasoning.",
		expect: []string{
			"Summarize at least 3 investment opportunities or red flags identified in the document.",
			"Provide at least 2 buy/hold/sell recommendations, with reasoning.",
			"Highlight key ratios or performance trends that influenced the recommendations.",
			"Offer a balanced outlook, noting both strengths and weaknesses.",
			"Include the sentence \"" + Disclaimer + "\"",
		},
		search: "stock market outlook analyst consensus",
	},
	models.StageRiskAssessment: {
		title: "Risk Assessment",
		system: "You are a professional risk analyst specializing in corporate filings and financial disclosures. " +
			"You apply structured risk frameworks, avoid exaggeration, and ground every risk in the document's content.",
		task: "Perform a risk assessment of the document below in relation to the user's query. " +
			"Cover liquidity, debt management, profitability and market exposure.",
		expect: []string{
			"List at least 3 major financial or operational risks, each rated low, medium or high with a short justification.",
			"Keep known risks (stated in the document) separate from inferred risks, and mark inferred risks as inferred.",
			"Summarize market and industry risks relevant to the company.",
			"Give an overall financial risk rating (low/medium/high).",
			"Recommend at least 2 practical risk mitigation strategies.",
		},
	},
}

// Builder renders stage prompts. Zero value is ready to use.
type Builder struct{}

// Build returns the system and user prompt for stage.
func (b Builder) Build(stage string, in Input) (models.Prompt, error) {
	tpl, ok := templates[stage]
	if !ok {
		return models.Prompt{}, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User query: %s\n\n", strings.TrimSpace(in.Query))
	sb.WriteString(tpl.task)
	sb.WriteString("\n\nYour response must:\n")
	for i, e := range tpl.expect {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, e)
	}

	for _, p := range in.Prior {
		fmt.Fprintf(&sb, "\n--- %s (earlier stage) ---\n%s\n", Title(p.Stage), strings.TrimSpace(p.Body))
	}

	if in.Snippets != "" {
		fmt.Fprintf(&sb, "\n--- Market context from web search ---\n%s\n", in.Snippets)
	}

	fmt.Fprintf(&sb, "\n--- Financial document ---\n%s\n--- End of document ---\n", in.Document)

	return models.Prompt{System: tpl.system, User: sb.String()}, nil
}

// SearchQuery returns the web search query for stage, or "" when the stage
// does not search.
func (b Builder) SearchQuery(stage, query string) string {
	tpl, ok := templates[stage]
	if !ok || tpl.search == "" {
		return ""
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return tpl.search
	}
	return q + " " + tpl.search
}

// Title is the report heading for stage.
func Title(stage string) string {
	if tpl, ok := templates[stage]; ok {
		return tpl.title
	}
	return stage
}

// Truncate cuts s to at most maxBytes without splitting UTF-8 runes. A
// non-positive maxBytes leaves s unchanged.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
