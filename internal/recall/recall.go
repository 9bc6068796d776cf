// Package recall condenses a user's prior briefs into a short context
// summary for follow-up research runs.
package recall

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"

	"github.com/briefops/briefer/internal/brief"
	"github.com/briefops/briefer/internal/store"
)

const defaultTopK = 5

// Service loads prior briefs, ranks them against the current topic and
// asks the summarization model for a condensed context paragraph.
type Service struct {
	store  store.Store
	gen    brief.Generator
	topK   int
	logger *log.Logger
}

func New(st store.Store, gen brief.Generator, topK int) *Service {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Service{
		store:  st,
		gen:    gen,
		topK:   topK,
		logger: log.New(log.Writer(), "[RECALL] ", log.LstdFlags),
	}
}

// Recall returns the user's full history plus a context summary built
// from the briefs most relevant to topic. An empty history produces a
// fixed summary without a model call.
func (s *Service) Recall(ctx context.Context, userID, topic string) ([]brief.FinalBrief, string, error) {
	history, err := s.store.LoadHistory(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("loading history for %s: %w", userID, err)
	}
	if len(history) == 0 {
		return nil, "No previous research available.", nil
	}

	relevant := s.rank(topic, history)
	summary, err := s.gen.Generate(ctx, brief.TaskSummarization, contextPrompt(topic, relevant))
	if err != nil {
		return nil, "", err
	}
	return history, strings.TrimSpace(summary), nil
}

// rank scores prior briefs against the topic with an in-memory BM25
// index and returns the top K. History order breaks ties and fills in
// when the query matches nothing (most recent first).
func (s *Service) rank(topic string, history []brief.FinalBrief) []brief.FinalBrief {
	picked := make(map[int]bool)
	var out []brief.FinalBrief

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err == nil {
		defer index.Close()
		for i, b := range history {
			doc := map[string]string{"topic": b.Topic, "summary": b.Summary}
			if err := index.Index(strconv.Itoa(i), doc); err != nil {
				s.logger.Printf("indexing brief %d: %v", i, err)
			}
		}
		search := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(topic), s.topK, 0, false)
		if res, err := index.Search(search); err == nil {
			for _, hit := range res.Hits {
				i, err := strconv.Atoi(hit.ID)
				if err != nil || i < 0 || i >= len(history) {
					continue
				}
				picked[i] = true
				out = append(out, history[i])
			}
		} else {
			s.logger.Printf("ranking history: %v", err)
		}
	} else {
		s.logger.Printf("building index: %v", err)
	}

	for i := len(history) - 1; i >= 0 && len(out) < s.topK; i-- {
		if !picked[i] {
			picked[i] = true
			out = append(out, history[i])
		}
	}
	return out
}

func contextPrompt(topic string, briefs []brief.FinalBrief) string {
	topics := make([]string, 0, len(briefs))
	var summaries strings.Builder
	for _, b := range briefs {
		topics = append(topics, b.Topic)
		fmt.Fprintf(&summaries, "- %s\n", b.Summary)
	}
	return fmt.Sprintf(`The user is researching: %s

Previous research topics: %s

Previous research summaries:
%s
Generate a concise summary of the previous research that would be relevant
to the user's current research topic. Focus on key findings, conclusions,
and any gaps that might need further exploration.`,
		topic, strings.Join(topics, ", "), summaries.String())
}
