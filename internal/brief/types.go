package brief

import (
	"time"
)

// Task categories routed to different models by the generative client.
const (
	TaskPlanning      = "planning"
	TaskSummarization = "summarization"
	TaskSynthesis     = "synthesis"
)

// ResearchQuery is a single search query produced by the planning stage.
type ResearchQuery struct {
	Query    string `json:"query"`
	Purpose  string `json:"purpose"`
	Subtopic string `json:"subtopic"`
}

// ResearchPlan describes how a topic will be researched: which
// subtopics to cover and which queries to run for each of them.
type ResearchPlan struct {
	MainTopic        string          `json:"main_topic"`
	Subtopics        []string        `json:"subtopics"`
	Queries          []ResearchQuery `json:"queries"`
	ExpectedDepth    int             `json:"expected_depth"`
	EstimatedSources int             `json:"estimated_sources"`
}

// SearchResult is one raw retrieval hit. Content is filled in by the
// content fetching stage; a result without content is kept but skipped
// by summarization.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Content string `json:"content,omitempty"`
}

// SourceSummary is the structured digest of a single fetched source.
type SourceSummary struct {
	SourceURL      string   `json:"source_url"`
	SourceTitle    string   `json:"source_title"`
	KeyPoints      []string `json:"key_points"`
	Evidence       []string `json:"evidence"`
	RelevanceScore float64  `json:"relevance_score"` // 0.0 to 1.0
	Summary        string   `json:"summary"`
	ContentType    string   `json:"content_type"` // article, paper, report, etc.
}

// Reference is an entry in a brief's reference list.
type Reference struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	KeyPoints      []string `json:"key_points"`
	RelevanceScore float64  `json:"relevance_score"`
}

// BriefSection is one section of the final brief. References holds
// zero-based indices into the brief's reference list.
type BriefSection struct {
	Heading    string `json:"heading"`
	Content    string `json:"content"`
	References []int  `json:"references"`
}

// TokenUsage records prompt and completion token counts for the
// synthesis call. Total is always Prompt+Completion.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// FinalBrief is the terminal product of a pipeline run and the record
// persisted per user.
type FinalBrief struct {
	Topic      string         `json:"topic"`
	Summary    string         `json:"summary"`
	Sections   []BriefSection `json:"sections"`
	References []Reference    `json:"references"`
	Metadata   map[string]any `json:"metadata"`
	Timestamp  time.Time      `json:"timestamp"`
	TokenUsage TokenUsage     `json:"token_usage"`
}

// State is the single mutable record threaded through every pipeline
// stage. Exactly one stage owns it at a time; stages return the
// updated value rather than sharing it.
type State struct {
	UserID               string         `json:"user_id"`
	Topic                string         `json:"topic"`
	Depth                int            `json:"depth"`
	IsFollowUp           bool           `json:"is_follow_up"`
	PreviousInteractions []FinalBrief   `json:"previous_interactions,omitempty"`
	ContextSummary       string         `json:"context_summary,omitempty"`
	ResearchPlan         *ResearchPlan  `json:"research_plan,omitempty"`
	SearchResults        []SearchResult `json:"search_results,omitempty"`
	SourceSummaries      []SourceSummary `json:"source_summaries,omitempty"`
	FinalBrief           *FinalBrief    `json:"final_brief,omitempty"`
	Error                string         `json:"error,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// NewState builds the initial pipeline state for one run.
func NewState(userID, topic string, depth int, followUp bool) State {
	return State{
		UserID:     userID,
		Topic:      topic,
		Depth:      depth,
		IsFollowUp: followUp,
		CreatedAt:  time.Now(),
	}
}

// Failed reports whether the run recorded a pipeline-level failure.
func (s State) Failed() bool { return s.Error != "" }
