// Package vendors holds the per-vendor EOL agents. Every agent is an
// instantiation of the shared agent.Base with its own keyword lexicon,
// prioritized URL registry, static cycle table, and page parser.
//
// Parsers are pure functions over a parsed document so they can be tested
// against HTML fixtures without network access. They return nil on
// unexpected markup — never an error, never a panic — so the fallback
// chain proceeds.
package vendors

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
)

// Registry instantiates every vendor agent in declaration order. The
// orchestrator routes against this order, so more specific agents come
// before generic ones; the endoflife.date agent is last as the
// vendor-agnostic source of last resort.
func Registry(deps agent.Deps) []agent.Agent {
	return []agent.Agent{
		NewMicrosoft(deps),
		NewRedHat(deps),
		NewUbuntu(deps),
		NewDebian(deps),
		NewSUSE(deps),
		NewOracle(deps),
		NewVMware(deps),
		NewApache(deps),
		NewNodeJS(deps),
		NewPostgreSQL(deps),
		NewMySQL(deps),
		NewPHP(deps),
		NewPython(deps),
		NewJava(deps),
		NewEndOfLife(deps),
	}
}

// parseFunc extracts one lifecycle row for (software, version) from a
// parsed vendor page.
type parseFunc func(doc *goquery.Document, software, version string) *agent.ScrapeResult

// scrapeURLs tries each active URL in priority order, parsing with parse.
// The first non-nil result wins and carries the URL it came from. When
// every fetch errors, the last error is returned; pages that fetched but
// yielded nothing produce (nil, nil).
func scrapeURLs(deps agent.Deps, urls []agent.SourceURL, parse parseFunc) agent.ScrapeFunc {
	return func(ctx context.Context, software, version string) (*agent.ScrapeResult, error) {
		var lastErr error
		fetched := false
		for _, source := range urls {
			if !source.Active {
				continue
			}
			doc, err := deps.Fetcher.GetDocument(ctx, source.URL)
			if err != nil {
				lastErr = err
				continue
			}
			fetched = true
			if result := parse(doc, software, version); result != nil {
				if result.SourceURL == "" {
					result.SourceURL = source.URL
				}
				return result, nil
			}
		}
		if !fetched && lastErr != nil {
			return nil, lastErr
		}
		return nil, nil
	}
}

var errNoListing = errors.New("listing page yielded no cycles")

// containsFold reports a case-insensitive substring match.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
