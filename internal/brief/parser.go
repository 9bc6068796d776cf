package brief

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// extractJSON pulls the JSON document out of raw model output. Models
// frequently wrap the payload in a fenced code block or lead with
// prose, so we try a ```json fence first and fall back to the first
// balanced top-level object.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty response")
	}
	if i := strings.Index(s, "```"); i != -1 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl != -1 {
			info := strings.TrimSpace(rest[:nl])
			body := rest[nl+1:]
			if j := strings.Index(body, "```"); j != -1 && (info == "" || strings.EqualFold(info, "json")) {
				return strings.TrimSpace(body[:j]), nil
			}
		}
	}
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", errors.New("no JSON object found")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON object")
}

// ParsePlan decodes and validates a research plan from raw model
// output. Failures are *ParseError, distinct from a failed service
// call.
func ParsePlan(raw string) (*ResearchPlan, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return nil, &ParseError{Target: "research plan", Err: err}
	}
	var plan ResearchPlan
	if err := decodeStrict(doc, &plan); err != nil {
		return nil, &ParseError{Target: "research plan", Err: err}
	}
	if strings.TrimSpace(plan.MainTopic) == "" {
		return nil, &ParseError{Target: "research plan", Err: errors.New("missing main_topic")}
	}
	if len(plan.Queries) == 0 {
		return nil, &ParseError{Target: "research plan", Err: errors.New("plan has no queries")}
	}
	for i, q := range plan.Queries {
		if strings.TrimSpace(q.Query) == "" {
			return nil, &ParseError{Target: "research plan", Err: fmt.Errorf("query %d has empty text", i)}
		}
	}
	return &plan, nil
}

// ParseSourceSummary decodes and validates a per-source summary.
func ParseSourceSummary(raw string) (*SourceSummary, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return nil, &ParseError{Target: "source summary", Err: err}
	}
	var sum SourceSummary
	if err := decodeStrict(doc, &sum); err != nil {
		return nil, &ParseError{Target: "source summary", Err: err}
	}
	if strings.TrimSpace(sum.SourceURL) == "" {
		return nil, &ParseError{Target: "source summary", Err: errors.New("missing source_url")}
	}
	if strings.TrimSpace(sum.Summary) == "" {
		return nil, &ParseError{Target: "source summary", Err: errors.New("missing summary")}
	}
	if sum.RelevanceScore < 0 || sum.RelevanceScore > 1 {
		return nil, &ParseError{Target: "source summary", Err: fmt.Errorf("relevance_score %v out of range [0,1]", sum.RelevanceScore)}
	}
	return &sum, nil
}

// ParseBrief decodes and validates a final brief. Section reference
// indices are checked against the parsed reference list when one is
// present; when the model omitted references the check is deferred to
// ValidateBrief after backfill.
func ParseBrief(raw string) (*FinalBrief, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return nil, &ParseError{Target: "final brief", Err: err}
	}
	var fb FinalBrief
	if err := decodeStrict(doc, &fb); err != nil {
		return nil, &ParseError{Target: "final brief", Err: err}
	}
	if strings.TrimSpace(fb.Topic) == "" {
		return nil, &ParseError{Target: "final brief", Err: errors.New("missing topic")}
	}
	if strings.TrimSpace(fb.Summary) == "" {
		return nil, &ParseError{Target: "final brief", Err: errors.New("missing summary")}
	}
	if len(fb.Sections) == 0 {
		return nil, &ParseError{Target: "final brief", Err: errors.New("brief has no sections")}
	}
	for _, ref := range fb.References {
		if ref.RelevanceScore < 0 || ref.RelevanceScore > 1 {
			return nil, &ParseError{Target: "final brief", Err: fmt.Errorf("reference relevance_score %v out of range [0,1]", ref.RelevanceScore)}
		}
	}
	if len(fb.References) > 0 {
		if err := ValidateBrief(&fb); err != nil {
			return nil, &ParseError{Target: "final brief", Err: err}
		}
	}
	return &fb, nil
}

// ValidateBrief checks the cross-record invariant that every section
// reference index points into the reference list.
func ValidateBrief(fb *FinalBrief) error {
	for si, sec := range fb.Sections {
		for _, idx := range sec.References {
			if idx < 0 || idx >= len(fb.References) {
				return fmt.Errorf("section %d references index %d, have %d references", si, idx, len(fb.References))
			}
		}
	}
	return nil
}

// decodeStrict unmarshals doc into v, rejecting wrong value types
// instead of coercing them.
func decodeStrict(doc string, v any) error {
	dec := json.NewDecoder(strings.NewReader(doc))
	if err := dec.Decode(v); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return fmt.Errorf("field %q: expected %s, got %s", ute.Field, ute.Type, ute.Value)
		}
		return err
	}
	return nil
}

// backfillReferences synthesizes one reference per source summary when
// the model produced none. References are never silently dropped when
// source material exists.
func backfillReferences(fb *FinalBrief, summaries []SourceSummary) {
	if fb == nil || len(fb.References) > 0 || len(summaries) == 0 {
		return
	}
	refs := make([]Reference, 0, len(summaries))
	for _, sum := range summaries {
		refs = append(refs, Reference{
			URL:            sum.SourceURL,
			Title:          sum.SourceTitle,
			KeyPoints:      sum.KeyPoints,
			RelevanceScore: sum.RelevanceScore,
		})
	}
	fb.References = refs
}

// isoTime renders timestamps the way brief metadata stores them.
func isoTime(t time.Time) string { return t.Format(time.RFC3339) }
