// Package chromedp renders pages in headless Chrome before extraction,
// for sites that require JavaScript.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/briefops/briefer/tools/web_fetch/models"
)

// Fetcher owns a long-lived Chrome context for performance. Construct
// once, call Exec per URL, Close on shutdown.
type Fetcher struct {
	allocCtx  context.Context
	cancelAll context.CancelFunc
	brCtx     context.Context
	cancelBr  context.CancelFunc

	timeout  time.Duration
	maxChars int
}

// NewFetcher starts a reusable headless browser.
func NewFetcher(timeout time.Duration, maxChars int, userAgent string) (*Fetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	bctx, cancelBr := chromedp.NewContext(actx)

	return &Fetcher{
		allocCtx:  actx,
		cancelAll: cancelAlloc,
		brCtx:     bctx,
		cancelBr:  cancelBr,
		timeout:   timeout,
		maxChars:  maxChars,
	}, nil
}

// Close tears down Chrome resources.
func (f *Fetcher) Close() {
	if f.cancelBr != nil {
		f.cancelBr()
	}
	if f.cancelAll != nil {
		f.cancelAll()
	}
}

// Exec navigates to link, waits for the body, and extracts the main
// content via readability.
func (f *Fetcher) Exec(ctx context.Context, link string) (models.Result, error) {
	if strings.TrimSpace(link) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	if err := ctx.Err(); err != nil {
		return models.Result{}, err
	}

	html, err := f.outerHTML(link)
	if err != nil {
		return models.Result{}, fmt.Errorf("rendering %s: %w", link, err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parseURL(link))
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

// outerHTML runs against the long-lived browser context; the tab is
// shared, so calls are inherently serial.
func (f *Fetcher) outerHTML(link string) (string, error) {
	tctx, cancel := context.WithTimeout(f.brCtx, f.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(tctx,
		chromedp.Navigate(link),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
