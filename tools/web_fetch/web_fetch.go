package web_fetch

import (
	"context"
	"time"

	"github.com/briefops/briefer/tools/web_fetch/chromedp"
	"github.com/briefops/briefer/tools/web_fetch/models"
	"github.com/briefops/briefer/tools/web_fetch/readability"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
)

// WebFetcher retrieves the main textual content behind a URL.
type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	// ReadabilityFetcherType does a plain HTTP GET and extracts the
	// article text. Cheap, no browser required.
	ReadabilityFetcherType FetcherType = "readability"
	// ChromedpFetcherType renders the page in headless Chrome first,
	// for JS-heavy sites.
	ChromedpFetcherType FetcherType = "chromedp"
)

type Error struct{ Msg string }

func (e *Error) Error() string { return e.Msg }

func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int, userAgent string) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case ReadabilityFetcherType:
		return readability.NewFetcher(timeout, maxChars, userAgent), nil
	case ChromedpFetcherType:
		return chromedp.NewFetcher(timeout, maxChars, userAgent)
	default:
		return nil, &Error{"unsupported fetcher type"}
	}
}
