package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remedyrag/internal/domain"
)

const (
	// contextTopK fixes how many results feed the prompt.
	contextTopK = 5
	// snippetLimit bounds the full-text excerpt per context section.
	snippetLimit = 500
)

// Orchestrator answers a question by retrieving context, rendering a
// deterministic prompt, and driving a fallback chain of candidate models
// until one produces text. The chain is static: candidates are tried in
// configured order, each at most once per request.
type Orchestrator struct {
	searcher       domain.Searcher
	generator      domain.Generator
	models         []string
	attemptTimeout time.Duration
	logf           func(format string, args ...any)
}

func New(searcher domain.Searcher, generator domain.Generator, models []string, attemptTimeout time.Duration, logf func(string, ...any)) *Orchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = 60 * time.Second
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Orchestrator{
		searcher:       searcher,
		generator:      generator,
		models:         models,
		attemptTimeout: attemptTimeout,
		logf:           logf,
	}
}

// Available reports whether a generation backend is configured.
func (o *Orchestrator) Available() bool {
	return o.generator != nil && len(o.models) > 0
}

// Answer runs retrieval, prompt assembly and generation for one
// question. The returned sources are exactly the results the prompt was
// built from, in retrieval order.
func (o *Orchestrator) Answer(ctx context.Context, query string) (*domain.ChatAnswer, error) {
	if !o.Available() {
		return nil, fmt.Errorf("%w: no generation backend configured", domain.ErrChatUnavailable)
	}

	results, _, err := o.searcher.Search(ctx, query, contextTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	prompt := BuildPrompt(results, query)

	var lastErr error
	lastModel := ""
	for _, model := range o.models {
		text, err := o.attempt(ctx, model, prompt)
		if err == nil {
			return &domain.ChatAnswer{Answer: text, Sources: results}, nil
		}
		o.logf("model %s failed: %v", model, err)
		lastErr = err
		lastModel = model
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: last candidate %s: %v", domain.ErrGenerationFailed, lastModel, lastErr)
}

// attempt runs one generation call under the per-attempt deadline so a
// hung candidate cannot block the rest of the chain.
func (o *Orchestrator) attempt(ctx context.Context, model, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()
	return o.generator.Generate(attemptCtx, model, prompt)
}

// BuildPrompt renders the fixed answer-generation template: task
// instructions, one section per retrieved result in retrieval order, and
// the verbatim user question.
func BuildPrompt(results []domain.SearchResult, query string) string {
	var context strings.Builder
	for i, r := range results {
		fmt.Fprintf(&context, "Remedy %d: %s\n", i+1, r.RemedyName)
		context.WriteString(r.TextPreview)
		context.WriteString("\n")
		if r.FullText != "" {
			fmt.Fprintf(&context, "Full Text Snippet: %s...\n", snippet(r.FullText))
		}
		context.WriteString("---\n")
	}

	var b strings.Builder
	b.WriteString("You are a helpful Homeopathy Assistant. Use ONLY the context below.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("1) Summarize the top matching remedies in 3-5 short bullet points.\n")
	b.WriteString("2) Then give a concise final answer to the user's question.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString("- Cite remedy names you used.\n")
	b.WriteString("- If the answer is not in the context, say so.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(context.String())
	b.WriteString("\nUser Question: ")
	b.WriteString(query)
	return b.String()
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLimit {
		return text
	}
	return string(runes[:snippetLimit])
}
