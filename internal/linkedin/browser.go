// Package linkedin sources candidate profiles from LinkedIn people
// search using a headless browser with a saved authenticated session.
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/types"
)

const (
	// DefaultSearchTimeout bounds a single people-search render.
	DefaultSearchTimeout = 45 * time.Second

	searchBaseURL = "https://www.linkedin.com/search/results/people/?keywords="

	// renderSettle gives LinkedIn's client-side rendering time to
	// populate result cards after the document is ready.
	renderSettle = 3 * time.Second
)

// ErrSignedOut is returned when LinkedIn serves a login or authwall
// page instead of search results, meaning the saved session expired.
var ErrSignedOut = errors.New("linkedin session expired or not authenticated")

// Client drives a shared headless browser against LinkedIn. A single
// Chrome instance is reused across searches; calls are serialized
// because the underlying browser tab holds navigation state.
type Client struct {
	sessionPath string
	timeout     time.Duration
	log         *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewClient returns a Client that loads cookies from sessionPath on
// first use. The browser is started lazily.
func NewClient(sessionPath string, timeout time.Duration, log *zap.Logger) *Client {
	if sessionPath == "" {
		sessionPath = DefaultSessionFile
	}
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{sessionPath: sessionPath, timeout: timeout, log: log}
}

// SearchPeople runs a LinkedIn people search and returns up to limit
// parsed profiles. Results with no usable name are dropped.
func (c *Client) SearchPeople(ctx context.Context, query string, limit int) ([]types.CandidateProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureBrowser(ctx); err != nil {
		return nil, &SearchError{Query: query, Cause: err}
	}

	searchURL := searchBaseURL + url.QueryEscape(query)
	c.log.Debug("rendering people search",
		zap.String("url", searchURL),
		zap.Int("limit", limit))

	html, err := c.renderPage(ctx, searchURL)
	if err != nil {
		return nil, &SearchError{Query: query, Cause: err}
	}

	if isSignedOut(html) {
		return nil, &SearchError{Query: query, Cause: ErrSignedOut}
	}

	profiles, err := parseSearchResults(html, limit)
	if err != nil {
		return nil, &SearchError{Query: query, Cause: err}
	}

	c.log.Info("people search complete",
		zap.String("query", query),
		zap.Int("profiles", len(profiles)))
	return profiles, nil
}

// Close shuts down the shared browser if one was started.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCancel != nil {
		c.browserCancel()
		c.browserCancel = nil
	}
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCancel = nil
	}
	c.browserCtx = nil
}

// ensureBrowser starts the headless browser and applies the saved
// session cookies. Requires Chrome/Chromium on the system.
func (c *Client) ensureBrowser(ctx context.Context) error {
	if c.browserCtx != nil {
		return nil
	}

	cookies, err := LoadSession(c.sessionPath)
	if err != nil {
		return err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	runCtx, cancel := context.WithTimeout(browserCtx, c.timeout)
	defer cancel()

	// Startup honors the caller's context too; the browser itself
	// outlives it for later searches.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, setCookies(cookies)); err != nil {
		browserCancel()
		allocCancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to start browser session: %w", err)
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	c.log.Debug("browser session started", zap.Int("cookies", len(cookies)))
	return nil
}

// renderPage navigates to a URL in the shared browser and returns the
// rendered HTML after client-side scripts have settled.
func (c *Client) renderPage(ctx context.Context, pageURL string) (string, error) {
	runCtx, cancel := context.WithTimeout(c.browserCtx, c.timeout)
	defer cancel()

	// Honor cancellation of the caller's context as well.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(renderSettle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}

// setCookies injects saved session cookies into the browser.
func setCookies(cookies []Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ck := range cookies {
			p := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithHTTPOnly(ck.HTTPOnly).
				WithSecure(ck.Secure)
			if ck.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
				p = p.WithExpires(&expires)
			}
			if err := p.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %q: %w", ck.Name, err)
			}
		}
		return nil
	})
}

// isSignedOut reports whether the rendered page is a login or authwall
// page instead of search results.
func isSignedOut(html string) bool {
	markers := []string{
		"/authwall",
		"upsell-authwall",
		"data-test-id=\"challenge-page\"",
		"signin-form",
	}
	for _, m := range markers {
		if strings.Contains(html, m) {
			return true
		}
	}
	return false
}
