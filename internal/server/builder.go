package server

import (
	"context"

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/brief"
	"github.com/briefops/briefer/tools/web_fetch"
	"github.com/briefops/briefer/tools/web_search"
)

// searchAdapter bridges the tools retrieval client to the pipeline's
// Searcher port.
type searchAdapter struct {
	ws web_search.WebSearcher
}

func (a searchAdapter) Discover(ctx context.Context, query string, maxResults int) ([]brief.SearchResult, error) {
	found, err := a.ws.Discover(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	results := make([]brief.SearchResult, 0, len(found))
	for _, r := range found {
		results = append(results, brief.SearchResult{URL: r.URL, Title: r.Title, Snippet: r.Snippet})
	}
	return results, nil
}

func newSearcher(cfg config.SearchConfig) (brief.Searcher, error) {
	ws, err := web_search.NewWebSearcher(web_search.Provider(cfg.Provider), cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return searchAdapter{ws: ws}, nil
}

// fetchAdapter bridges the tools fetcher to the pipeline's Fetcher
// port.
type fetchAdapter struct {
	wf web_fetch.WebFetcher
}

func (a fetchAdapter) Fetch(ctx context.Context, url string) (string, error) {
	res, err := a.wf.Exec(ctx, url)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func newFetcher(cfg config.FetchConfig) (brief.Fetcher, error) {
	wf, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Type), cfg.Timeout, cfg.MaxChars, cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	return fetchAdapter{wf: wf}, nil
}
