package brief

import (
	"context"
	"log"
	"time"

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/telemetry"
)

// Generator is the generative service consumed by the pipeline. The
// task category selects a model; the prompt is opaque to the engine.
type Generator interface {
	Generate(ctx context.Context, task, prompt string) (string, error)
}

// Searcher is the retrieval service consumed by the search stage.
type Searcher interface {
	Discover(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Fetcher retrieves the full text behind a search result.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Recaller loads a user's prior briefs and condenses them into a short
// context summary for follow-up runs.
type Recaller interface {
	Recall(ctx context.Context, userID, topic string) ([]FinalBrief, string, error)
}

// Store is the persistence gateway written by the terminal stage.
type Store interface {
	AppendBrief(ctx context.Context, userID string, b FinalBrief) error
}

// Stage names the nodes of the pipeline graph.
type Stage string

const (
	StageContextSummarization Stage = "context_summarization"
	StagePlanning             Stage = "planning"
	StageSearch               Stage = "search"
	StageContentFetching      Stage = "content_fetching"
	StageSourceSummarization  Stage = "source_summarization"
	StageSynthesis            Stage = "synthesis"
	StagePostProcessing       Stage = "post_processing"

	stageEnd Stage = ""
)

// Engine executes the fixed research pipeline. The graph is linear
// except for one conditional edge: after context summarization a run
// that already failed skips straight to post processing. Execution is
// synchronous; the engine never retries and never re-enters a stage.
type Engine struct {
	gen      Generator
	searcher Searcher
	fetcher  Fetcher
	recaller Recaller
	store    Store

	maxContentChars int
	logger          *log.Logger
	telemetry       *telemetry.Telemetry

	// Trace, when set, observes each executed stage in order.
	Trace func(Stage)
}

// DefaultContentBudget bounds how much fetched text goes into a
// summarization prompt.
const DefaultContentBudget = 4000

// NewEngine wires a pipeline engine. telemetry may be nil.
func NewEngine(cfg config.PipelineConfig, gen Generator, searcher Searcher, fetcher Fetcher,
	recaller Recaller, store Store, logger *log.Logger, tele *telemetry.Telemetry) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	budget := cfg.MaxContentChars
	if budget <= 0 {
		budget = DefaultContentBudget
	}
	return &Engine{
		gen:             gen,
		searcher:        searcher,
		fetcher:         fetcher,
		recaller:        recaller,
		store:           store,
		maxContentChars: budget,
		logger:          logger,
		telemetry:       tele,
	}
}

// Run threads the state through the stage graph until the terminal
// stage completes. The returned state carries either a final brief or
// an error message; stage failures never escape as Go errors.
func (e *Engine) Run(ctx context.Context, s State) State {
	start := time.Now()
	for cur := StageContextSummarization; cur != stageEnd; {
		stageStart := time.Now()
		s = e.step(ctx, cur, s)
		e.telemetry.ObserveStage(string(cur), time.Since(stageStart))
		if e.Trace != nil {
			e.Trace(cur)
		}
		cur = e.next(cur, s)
	}
	if s.Failed() {
		e.telemetry.RecordRun("error", time.Since(start))
	} else {
		e.telemetry.RecordRun("ok", time.Since(start))
	}
	return s
}

func (e *Engine) step(ctx context.Context, stage Stage, s State) State {
	switch stage {
	case StageContextSummarization:
		return e.summarizeContext(ctx, s)
	case StagePlanning:
		return e.createResearchPlan(ctx, s)
	case StageSearch:
		return e.executeSearch(ctx, s)
	case StageContentFetching:
		return e.fetchContent(ctx, s)
	case StageSourceSummarization:
		return e.summarizeSources(ctx, s)
	case StageSynthesis:
		return e.synthesizeBrief(ctx, s)
	case StagePostProcessing:
		return e.postProcess(ctx, s)
	}
	return s
}

// next evaluates the outgoing edge of the stage that just ran. The
// edge out of context summarization is the only conditional one.
func (e *Engine) next(cur Stage, s State) Stage {
	switch cur {
	case StageContextSummarization:
		if s.Failed() {
			return StagePostProcessing
		}
		return StagePlanning
	case StagePlanning:
		return StageSearch
	case StageSearch:
		return StageContentFetching
	case StageContentFetching:
		return StageSourceSummarization
	case StageSourceSummarization:
		return StageSynthesis
	case StageSynthesis:
		return StagePostProcessing
	default:
		return stageEnd
	}
}
