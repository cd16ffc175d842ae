package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// navigationTimeout bounds a single search navigation including challenge
// waits.
const navigationTimeout = 30 * time.Second

// challengeWait is how long a detected challenge page is given to resolve
// itself before the lookup is declared blocked.
const challengeWait = 15 * time.Second

// minExtractedChars is the threshold below which top-level extraction is
// considered empty and inner frames are probed.
const minExtractedChars = 100

// ErrChallengeBlocked marks a persistent anti-bot challenge page.
var ErrChallengeBlocked = errors.New("search page stuck behind challenge")

var challengePhrases = []string{
	"one last step",
	"just a moment",
	"checking your browser",
	"verify you are human",
}

// resultSelectors are tried in order against the search result page. The
// first selector yielding enough text wins.
var resultSelectors = []string{
	"#b_results .b_algo",
	"#b_results",
	"#search",
	"#links",
	"main",
	"body",
}

// maskAutomationScript runs before every document load and hides the
// usual headless fingerprints.
const maskAutomationScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3]});
`

// SearchResult is the raw material handed to the date extractor.
type SearchResult struct {
	Text string
	URL  string
}

// Searcher abstracts the browser so the agent can be tested without a
// Chrome binary.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	Close()
}

// BrowserOptions configure the shared browser instance.
type BrowserOptions struct {
	Headless  bool
	UserAgent string
	SearchURL string // format string with one %s for the escaped query
}

// Browser owns one Chrome process for the lifetime of the service. Each
// Search call opens and closes its own tab; the allocator is shared to
// amortise startup cost.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	opts     BrowserOptions
	logger   *slog.Logger
}

// NewBrowser starts the allocator. The Chrome process itself launches
// lazily with the first tab.
func NewBrowser(logger *slog.Logger, opts BrowserOptions) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	if opts.SearchURL == "" {
		opts.SearchURL = "https://www.bing.com/search?q=%s"
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &Browser{
		allocCtx: allocCtx,
		cancel:   cancel,
		opts:     opts,
		logger:   logger,
	}
}

// Close tears down the allocator and the Chrome process.
func (b *Browser) Close() {
	b.cancel()
}

// Search navigates a fresh tab to the search engine, waits out challenge
// pages, and extracts the result text.
func (b *Browser) Search(ctx context.Context, query string) (*SearchResult, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, navigationTimeout)
	defer cancelTimeout()

	// Honour the caller's cancellation alongside the tab's own timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	target := fmt.Sprintf(b.opts.SearchURL, url.QueryEscape(query))

	var bodyText string
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskAutomationScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(target),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("navigate search page: %w", err)
	}

	if isChallengePage(bodyText) {
		bodyText, err = b.waitOutChallenge(tabCtx)
		if err != nil {
			return nil, err
		}
	}

	text, err := b.extractResultText(tabCtx)
	if err != nil {
		return nil, err
	}
	if len(text) < minExtractedChars {
		// Thin top-level text usually means the results render inside a
		// frame; take whatever the frames yield, else keep the body text.
		if frameText := b.probeFrames(tabCtx); len(frameText) > len(text) {
			text = frameText
		} else if len(bodyText) > len(text) {
			text = bodyText
		}
	}

	var currentURL string
	_ = chromedp.Run(tabCtx, chromedp.Location(&currentURL))

	return &SearchResult{Text: text, URL: currentURL}, nil
}

// waitOutChallenge polls the body text until the challenge phrases clear
// or the wait budget is spent.
func (b *Browser) waitOutChallenge(ctx context.Context) (string, error) {
	deadline := time.Now().Add(challengeWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
		}

		var bodyText string
		if err := chromedp.Run(ctx, chromedp.Text("body", &bodyText, chromedp.ByQuery)); err != nil {
			return "", fmt.Errorf("poll challenge page: %w", err)
		}
		if !isChallengePage(bodyText) {
			b.logger.Debug("challenge page cleared")
			return bodyText, nil
		}
	}
	b.logger.Warn("challenge page did not clear", "waited", challengeWait.String())
	return "", ErrChallengeBlocked
}

func (b *Browser) extractResultText(ctx context.Context) (string, error) {
	for _, selector := range resultSelectors {
		var text string
		err := chromedp.Run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.AtLeast(0)))
		if err != nil {
			return "", fmt.Errorf("extract %q: %w", selector, err)
		}
		if len(text) >= minExtractedChars {
			return text, nil
		}
	}
	return "", nil
}

// probeFrames concatenates the text of same-origin iframes.
func (b *Browser) probeFrames(ctx context.Context) string {
	var frameText string
	script := `Array.from(document.querySelectorAll('iframe')).map(f => {
		try { return f.contentDocument ? f.contentDocument.body.innerText : ''; }
		catch (e) { return ''; }
	}).join('\n')`
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &frameText)); err != nil {
		b.logger.Debug("frame probe failed", "error", err)
		return ""
	}
	return frameText
}

func isChallengePage(bodyText string) bool {
	lower := strings.ToLower(bodyText)
	for _, phrase := range challengePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
