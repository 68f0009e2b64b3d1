// Package pipeline runs the sequential LLM stages that turn a financial
// document into a markdown report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/document"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/search"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/prompt"
)

// ErrDocumentRejected is returned under strict verification when the
// verifier judges the upload not to be a financial report.
var ErrDocumentRejected = errors.New("document rejected by verification")

const DefaultMaxDocumentChars = 60000

// Toolset holds the capabilities available to stages. Nil fields are absent.
type Toolset struct {
	Reader   document.Reader
	Searcher search.Searcher
}

func (t Toolset) has(c Capability) bool {
	switch c {
	case CapDocumentReader:
		return t.Reader != nil
	case CapWebSearch:
		return t.Searcher != nil
	default:
		return false
	}
}

// Input identifies the document and question for one run.
type Input struct {
	Fingerprint string
	Query       string
	FilePath    string
	FileName    string
}

// OnStage is called with the stage name before the stage starts.
type OnStage func(stage string)

type Option func(*Runner)

func WithStrictVerification(strict bool) Option {
	return func(r *Runner) { r.strict = strict }
}

func WithMaxDocumentChars(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxChars = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner executes Stages in order against one provider.
type Runner struct {
	provider models.AIProvider
	tools    Toolset
	builder  prompt.Builder
	stages   []Stage
	strict   bool
	maxChars int
	logger   *slog.Logger
}

// NewRunner checks every stage's capabilities against tools. A missing
// required capability is an error; a missing optional one is logged.
func NewRunner(provider models.AIProvider, tools Toolset, opts ...Option) (*Runner, error) {
	if provider == nil {
		return nil, errors.New("pipeline: provider is required")
	}
	r := &Runner{
		provider: provider,
		tools:    tools,
		stages:   Stages,
		maxChars: DefaultMaxDocumentChars,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	warned := map[Capability]bool{}
	for _, st := range r.stages {
		for _, c := range st.Requires {
			if !tools.has(c) {
				return nil, fmt.Errorf("pipeline: stage %s requires %s", st.Name, c)
			}
		}
		for _, c := range st.Optional {
			if !tools.has(c) && !warned[c] {
				warned[c] = true
				r.logger.Warn("optional capability unavailable, stages will run without it", "capability", c)
			}
		}
	}
	return r, nil
}

// Run executes every stage and returns the rendered report. The first stage
// error stops the run.
func (r *Runner) Run(ctx context.Context, in Input, onStage OnStage) (string, error) {
	log := r.logger.With("fingerprint", in.Fingerprint)

	var (
		doc      string
		loaded   bool
		sections []prompt.Section
	)

	for _, st := range r.stages {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("stage %s: %w", st.Name, err)
		}
		if onStage != nil {
			onStage(st.Name)
		}

		if !loaded {
			text, err := r.tools.Reader.Read(ctx, in.FilePath)
			if err != nil {
				return "", fmt.Errorf("stage %s: read document: %w", st.Name, err)
			}
			doc = prompt.Truncate(text, r.maxChars)
			if len(doc) < len(text) {
				log.Info("document truncated", "chars", len(text), "limit", r.maxChars)
			}
			loaded = true
		}

		var snippets string
		if st.wants(CapWebSearch) && r.tools.Searcher != nil {
			snippets = r.search(ctx, log, st.Name, in.Query)
		}

		p, err := r.builder.Build(st.Name, prompt.Input{
			Query:    in.Query,
			Document: doc,
			Prior:    sections,
			Snippets: snippets,
		})
		if err != nil {
			return "", fmt.Errorf("stage %s: %w", st.Name, err)
		}

		log.Info("stage started", "stage", st.Name, "provider", r.provider.Name())
		out, err := r.provider.Complete(ctx, p)
		if err != nil {
			return "", fmt.Errorf("stage %s: %w", st.Name, err)
		}

		switch st.Name {
		case models.StageVerification:
			v := ParseVerdict(out)
			log.Info("verification verdict", "verdict", v)
			if v == VerdictInvalid && r.strict {
				return "", fmt.Errorf("stage %s: %w", st.Name, ErrDocumentRejected)
			}
		case models.StageInvestment:
			out = EnsureDisclaimer(out)
		}

		sections = append(sections, prompt.Section{Stage: st.Name, Body: out})
	}

	return Render(in, sections), nil
}

func (r *Runner) search(ctx context.Context, log *slog.Logger, stage, query string) string {
	q := r.builder.SearchQuery(stage, query)
	if q == "" {
		return ""
	}
	results, err := r.tools.Searcher.Search(ctx, q)
	if err != nil {
		log.Warn("web search failed, continuing without it", "stage", stage, "error", err)
		return ""
	}
	return search.Format(results)
}

type Verdict string

const (
	VerdictValid   Verdict = "valid"
	VerdictInvalid Verdict = "invalid"
	VerdictUnknown Verdict = "unknown"
)

// ParseVerdict reads the last VERDICT line of a verification response.
func ParseVerdict(out string) Verdict {
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.ToUpper(strings.Trim(strings.TrimSpace(lines[i]), "*_`"))
		idx := strings.Index(line, "VERDICT:")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+len("VERDICT:"):])
		switch {
		case strings.HasPrefix(rest, "INVALID"):
			return VerdictInvalid
		case strings.HasPrefix(rest, "VALID"):
			return VerdictValid
		}
		return VerdictUnknown
	}
	return VerdictUnknown
}

// EnsureDisclaimer appends the disclaimer when the model left it out.
func EnsureDisclaimer(out string) string {
	if strings.Contains(out, prompt.Disclaimer) {
		return out
	}
	return strings.TrimRight(out, "\n") + "\n\n" + prompt.Disclaimer
}

// Render assembles the markdown report.
func Render(in Input, sections []prompt.Section) string {
	var sb strings.Builder
	sb.WriteString("# Financial Document Analysis\n\n")
	if in.FileName != "" {
		fmt.Fprintf(&sb, "**Document:** %s\n\n", in.FileName)
	}
	fmt.Fprintf(&sb, "**Query:** %s\n", strings.TrimSpace(in.Query))
	for _, s := range sections {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", prompt.Title(s.Stage), strings.TrimSpace(s.Body))
	}
	return sb.String()
}
