package brief

import (
	"fmt"
	"strings"
)

const planFormat = `Respond ONLY with valid JSON in the following format:
{
  "main_topic": "the main research topic",
  "subtopics": ["subtopic", "..."],
  "queries": [
    {"query": "search query text", "purpose": "what this query should find", "subtopic": "which subtopic it addresses"}
  ],
  "expected_depth": 1,
  "estimated_sources": 1
}
Do not include any other text or explanation.`

const summaryFormat = `Respond ONLY with valid JSON in the following format:
{
  "source_url": "url of the source",
  "source_title": "title of the source",
  "key_points": ["key point", "..."],
  "evidence": ["supporting evidence or data", "..."],
  "relevance_score": 0.0,
  "summary": "concise summary of the source",
  "content_type": "article|paper|report|other"
}
Do not include any other text or explanation.`

const briefFormat = `Respond ONLY with valid JSON in the following format:
{
  "topic": "research topic",
  "summary": "overall summary of the research",
  "sections": [
    {"heading": "section heading", "content": "section content", "references": [0]}
  ],
  "references": [
    {"url": "source url", "title": "source title", "key_points": ["..."], "relevance_score": 0.0}
  ]
}
Section reference entries are zero-based indices into the references list.
Do not include any other text or explanation.`

func planningPrompt(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed research plan for the topic: %q\n\n", s.Topic)
	fmt.Fprintf(&b, "Research depth: %d (1=simple overview, 5=in-depth analysis)\n\n", s.Depth)
	if s.ContextSummary != "" {
		fmt.Fprintf(&b, "Context from previous research: %s\n\n", s.ContextSummary)
	}
	b.WriteString(`Instructions:
1. Identify 3-5 key subtopics related to the main topic
2. For each subtopic, create 1-2 specific search queries that will find high-quality sources
3. Each query should be designed to retrieve comprehensive information
4. Estimate the number of sources needed based on the research depth

`)
	b.WriteString(planFormat)
	return b.String()
}

func summarizationPrompt(topic string, result SearchResult, content string) string {
	title := result.Title
	if title == "" {
		title = "Unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze and summarize the following content from %s titled %q.\n\n", result.URL, title)
	fmt.Fprintf(&b, "Research topic: %s\n\nContent:\n%s\n\n", topic, content)
	b.WriteString(`Instructions:
1. Extract the key points relevant to the research topic
2. Identify specific evidence or data that supports these points
3. Assess the relevance of this source to the research topic (0-1 scale)
4. Identify the type of content (article, paper, report, etc.)
5. Create a concise summary focusing on the most important information

`)
	b.WriteString(summaryFormat)
	return b.String()
}

func synthesisPrompt(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synthesize a comprehensive research brief on the topic: %s\n\n", s.Topic)
	if s.ResearchPlan != nil {
		fmt.Fprintf(&b, "Research plan:\n%s\n\n", formatPlan(s.ResearchPlan))
	}
	fmt.Fprintf(&b, "Source summaries:\n%s\n\n", formatSources(s.SourceSummaries))
	if s.ContextSummary != "" {
		fmt.Fprintf(&b, "Context from previous research: %s\n\n", s.ContextSummary)
	}
	b.WriteString(`Instructions:
1. Create a well-structured brief with multiple sections
2. Each section should have a clear heading and detailed content
3. Include specific information from the sources
4. Reference sources in each section using their zero-based index numbers
5. Include a complete references section at the end

`)
	b.WriteString(briefFormat)
	return b.String()
}

func formatPlan(plan *ResearchPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Main topic: %s\n", plan.MainTopic)
	if len(plan.Subtopics) > 0 {
		fmt.Fprintf(&b, "Subtopics: %s\n", strings.Join(plan.Subtopics, ", "))
	}
	for _, q := range plan.Queries {
		fmt.Fprintf(&b, "- %s (%s)\n", q.Query, q.Purpose)
	}
	return b.String()
}

// formatSources renders each summary as a fixed block so the model can
// cite sources by index.
func formatSources(summaries []SourceSummary) string {
	if len(summaries) == 0 {
		return "No source material was available for this topic."
	}
	blocks := make([]string, 0, len(summaries))
	for i, sum := range summaries {
		blocks = append(blocks, fmt.Sprintf("Source %d: %s\nURL: %s\nKey Points: %s\nSummary: %s",
			i, sum.SourceTitle, sum.SourceURL, strings.Join(sum.KeyPoints, ", "), sum.Summary))
	}
	return strings.Join(blocks, "\n\n")
}
