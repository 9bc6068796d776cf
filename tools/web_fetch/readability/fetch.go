// Package readability fetches pages over plain HTTP and extracts the
// main article text.
package readability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/briefops/briefer/tools/web_fetch/models"
)

type Fetcher struct {
	httpClient *http.Client
	maxChars   int
	userAgent  string
}

func NewFetcher(timeout time.Duration, maxChars int, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxChars:   maxChars,
		userAgent:  userAgent,
	}
}

// Exec downloads link and runs readability extraction over the body.
func (f *Fetcher) Exec(ctx context.Context, link string) (models.Result, error) {
	if strings.TrimSpace(link) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return models.Result{}, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return models.Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Result{}, fmt.Errorf("fetch %s: status %d", link, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parseURL(link))
	if err != nil {
		return models.Result{}, fmt.Errorf("extracting content from %s: %w", link, err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return models.Result{}, fmt.Errorf("no readable content at %s", link)
	}
	if len(text) > f.maxChars {
		text = text[:f.maxChars]
	}
	return models.Result{
		URL:   link,
		Title: strings.TrimSpace(article.Title),
		Text:  text,
	}, nil
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
