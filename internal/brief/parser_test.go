package brief

import (
	"errors"
	"strings"
	"testing"
)

func TestParsePlanFromFencedJSON(t *testing.T) {
	raw := "Here is the plan:\n```json\n{\"main_topic\":\"Climate Change\",\"subtopics\":[\"impacts\"],\"queries\":[{\"query\":\"climate change impacts 2024\",\"purpose\":\"find recent impacts\",\"subtopic\":\"impacts\"}],\"expected_depth\":2,\"estimated_sources\":4}\n```"
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if plan.MainTopic != "Climate Change" {
		t.Fatalf("unexpected main topic %q", plan.MainTopic)
	}
	if len(plan.Queries) != 1 || plan.Queries[0].Query != "climate change impacts 2024" {
		t.Fatalf("unexpected queries: %+v", plan.Queries)
	}
}

func TestParsePlanFromBareJSONWithProse(t *testing.T) {
	raw := `Sure! {"main_topic":"Go","subtopics":[],"queries":[{"query":"go generics","purpose":"p","subtopic":"s"}],"expected_depth":1,"estimated_sources":2} hope that helps`
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if plan.EstimatedSources != 2 {
		t.Fatalf("expected 2 estimated sources, got %d", plan.EstimatedSources)
	}
}

func TestParsePlanRejectsMissingQueries(t *testing.T) {
	_, err := ParsePlan(`{"main_topic":"Go","subtopics":[],"queries":[],"expected_depth":1,"estimated_sources":0}`)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "no queries") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestParsePlanRejectsWrongType(t *testing.T) {
	_, err := ParsePlan(`{"main_topic":"Go","queries":[{"query":"x"}],"expected_depth":"deep"}`)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParsePlanRejectsNonJSON(t *testing.T) {
	_, err := ParsePlan("I could not produce a plan, sorry.")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseSourceSummaryRejectsOutOfRangeScore(t *testing.T) {
	raw := `{"source_url":"https://example.com","source_title":"t","key_points":["k"],"evidence":[],"relevance_score":1.4,"summary":"s","content_type":"article"}`
	_, err := ParseSourceSummary(raw)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestParseSourceSummarySuccess(t *testing.T) {
	raw := "```\n{\"source_url\":\"https://example.com\",\"source_title\":\"Example\",\"key_points\":[\"a\",\"b\"],\"evidence\":[\"e\"],\"relevance_score\":0.8,\"summary\":\"short\",\"content_type\":\"article\"}\n```"
	sum, err := ParseSourceSummary(raw)
	if err != nil {
		t.Fatalf("ParseSourceSummary: %v", err)
	}
	if sum.RelevanceScore != 0.8 || len(sum.KeyPoints) != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestParseBriefRejectsInvalidReferenceIndex(t *testing.T) {
	raw := `{"topic":"t","summary":"s","sections":[{"heading":"h","content":"c","references":[2]}],"references":[{"url":"u","title":"t","key_points":[],"relevance_score":0.5}]}`
	_, err := ParseBrief(raw)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseBriefDefersIndexCheckWhenNoReferences(t *testing.T) {
	// The model often omits references; indices are validated after
	// backfill instead.
	raw := `{"topic":"t","summary":"s","sections":[{"heading":"h","content":"c","references":[0]}],"references":[]}`
	fb, err := ParseBrief(raw)
	if err != nil {
		t.Fatalf("ParseBrief: %v", err)
	}
	if len(fb.References) != 0 {
		t.Fatalf("expected no references, got %d", len(fb.References))
	}
}

func TestBackfillReferencesPreservesOrder(t *testing.T) {
	fb := &FinalBrief{Topic: "t", Summary: "s"}
	summaries := []SourceSummary{
		{SourceURL: "https://a", SourceTitle: "A", KeyPoints: []string{"ka"}, RelevanceScore: 0.9},
		{SourceURL: "https://b", SourceTitle: "B", KeyPoints: []string{"kb"}, RelevanceScore: 0.7},
	}
	backfillReferences(fb, summaries)
	if len(fb.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(fb.References))
	}
	if fb.References[0].URL != "https://a" || fb.References[1].URL != "https://b" {
		t.Fatalf("order not preserved: %+v", fb.References)
	}
}

func TestBackfillReferencesKeepsExisting(t *testing.T) {
	fb := &FinalBrief{References: []Reference{{URL: "https://keep"}}}
	backfillReferences(fb, []SourceSummary{{SourceURL: "https://new"}})
	if len(fb.References) != 1 || fb.References[0].URL != "https://keep" {
		t.Fatalf("existing references must not be replaced: %+v", fb.References)
	}
}

func TestExtractJSONHandlesNestedBracesInStrings(t *testing.T) {
	doc, err := extractJSON(`prefix {"a":"br{ace}s","b":{"c":1}} suffix`)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	if doc != `{"a":"br{ace}s","b":{"c":1}}` {
		t.Fatalf("unexpected doc: %s", doc)
	}
}
