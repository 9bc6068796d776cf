package brief

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// summarizeContext loads prior briefs for follow-up runs and condenses
// them into a context summary. Every failure path sets state.Error
// explicitly: the conditional edge after this stage depends on it.
func (e *Engine) summarizeContext(ctx context.Context, s State) State {
	if !s.IsFollowUp {
		return s
	}
	history, summary, err := e.recaller.Recall(ctx, s.UserID, s.Topic)
	if err != nil {
		s.Error = fmt.Sprintf("summarizing context: %v", err)
		return s
	}
	s.PreviousInteractions = history
	s.ContextSummary = summary
	return s
}

// createResearchPlan asks the planning model for a research plan and
// validates it. Call and parse failures both abort the run via
// state.Error; the plan stays nil.
func (e *Engine) createResearchPlan(ctx context.Context, s State) State {
	response, err := e.gen.Generate(ctx, TaskPlanning, planningPrompt(s))
	if err != nil {
		s.Error = fmt.Sprintf("creating research plan: %v", err)
		return s
	}
	plan, err := ParsePlan(response)
	if err != nil {
		s.Error = fmt.Sprintf("creating research plan: %v", err)
		return s
	}
	s.ResearchPlan = plan
	return s
}

// executeSearch runs every plan query through the retrieval client.
// A failing query is logged and skipped; partial results win over an
// aborted stage, so this stage never sets state.Error.
func (e *Engine) executeSearch(ctx context.Context, s State) State {
	if s.ResearchPlan == nil {
		e.logger.Printf("search: no research plan, skipping")
		return s
	}
	maxResults := s.Depth * 2
	var results []SearchResult
	for _, q := range s.ResearchPlan.Queries {
		found, err := e.searcher.Discover(ctx, q.Query, maxResults)
		if err != nil {
			e.logger.Printf("search: query %q failed: %v", q.Query, err)
			e.telemetry.RecordSkip(string(StageSearch))
			continue
		}
		results = append(results, found...)
	}
	s.SearchResults = results
	return s
}

// fetchContent retrieves the full text for each search result. Items
// that fail to fetch are kept without content so downstream stages see
// the original result order.
func (e *Engine) fetchContent(ctx context.Context, s State) State {
	for i := range s.SearchResults {
		text, err := e.fetcher.Fetch(ctx, s.SearchResults[i].URL)
		if err != nil {
			e.logger.Printf("fetch: %s: %v", s.SearchResults[i].URL, err)
			e.telemetry.RecordSkip(string(StageContentFetching))
			continue
		}
		s.SearchResults[i].Content = text
	}
	return s
}

// summarizeSources produces a structured summary for each result that
// carries fetched content. Content is truncated to a fixed budget to
// bound prompt size. Per-item failures drop the item, not the run;
// zero eligible sources is not an error.
func (e *Engine) summarizeSources(ctx context.Context, s State) State {
	var summaries []SourceSummary
	for _, result := range s.SearchResults {
		if result.Content == "" {
			continue
		}
		content := truncate(result.Content, e.maxContentChars)
		response, err := e.gen.Generate(ctx, TaskSummarization, summarizationPrompt(s.Topic, result, content))
		if err != nil {
			e.logger.Printf("summarize: %s: %v", result.URL, err)
			e.telemetry.RecordSkip(string(StageSourceSummarization))
			continue
		}
		sum, err := ParseSourceSummary(response)
		if err != nil {
			e.logger.Printf("summarize: %s: %v", result.URL, err)
			e.telemetry.RecordSkip(string(StageSourceSummarization))
			continue
		}
		summaries = append(summaries, *sum)
	}
	s.SourceSummaries = summaries
	return s
}

// synthesizeBrief combines the plan, the source summaries and any
// context into the final brief. Token usage is measured over the exact
// prompt and completion text. Runs with no source material still
// synthesize; the model degrades to plan and context alone.
func (e *Engine) synthesizeBrief(ctx context.Context, s State) State {
	// A run that already failed must not produce a brief: the caller
	// sees either an error or a brief, never both. Earlier productive
	// stages are natural no-ops without a plan; this one is not.
	if s.Failed() {
		return s
	}
	prompt := synthesisPrompt(s)
	promptTokens := estimateTokens(prompt)

	response, err := e.gen.Generate(ctx, TaskSynthesis, prompt)
	if err != nil {
		s.Error = fmt.Sprintf("synthesizing brief: %v", err)
		return s
	}
	completionTokens := estimateTokens(response)

	fb, err := ParseBrief(response)
	if err != nil {
		s.Error = fmt.Sprintf("synthesizing brief: %v", err)
		return s
	}

	backfillReferences(fb, s.SourceSummaries)
	if err := ValidateBrief(fb); err != nil {
		s.Error = fmt.Sprintf("synthesizing brief: %v", err)
		return s
	}

	fb.TokenUsage = TokenUsage{
		Prompt:     promptTokens,
		Completion: completionTokens,
		Total:      promptTokens + completionTokens,
	}
	e.telemetry.RecordTokens(promptTokens, completionTokens)
	s.FinalBrief = fb
	return s
}

// postProcess is the terminal stage and always runs. On the error path
// (no brief) it is a no-op; the caller surfaces state.Error. Otherwise
// it stamps metadata, backfills defaults, re-applies the reference
// backfill as a second safety net and persists the brief.
func (e *Engine) postProcess(ctx context.Context, s State) State {
	if s.FinalBrief == nil {
		return s
	}
	fb := s.FinalBrief
	fb.Metadata = map[string]any{
		"user_id":      s.UserID,
		"depth":        s.Depth,
		"is_follow_up": s.IsFollowUp,
		"created_at":   isoTime(s.CreatedAt),
	}
	if fb.Timestamp.IsZero() {
		fb.Timestamp = time.Now()
	}
	backfillReferences(fb, s.SourceSummaries)

	if err := e.store.AppendBrief(ctx, s.UserID, *fb); err != nil {
		// The brief was produced; a failed write is logged rather than
		// turned into a run failure.
		e.logger.Printf("persist: user %s: %v", s.UserID, err)
	}
	return s
}

// truncate trims s to at most max bytes without splitting a rune, so
// truncated prompt content stays valid UTF-8.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
