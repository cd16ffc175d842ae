package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

const endOfLifeAPIBase = "https://endoflife.date/api"

// endOfLifeSlugs maps common inventory spellings to endoflife.date
// product slugs where simple normalization is not enough.
var endOfLifeSlugs = map[string]string{
	"node":                     "nodejs",
	"node.js":                  "nodejs",
	"postgres":                 "postgresql",
	"golang":                   "go",
	"mongo":                    "mongodb",
	"elastic":                  "elasticsearch",
	"k8s":                      "kubernetes",
	"rhel":                     "rhel",
	"red-hat-enterprise-linux": "rhel",
	"tomcat":                   "tomcat",
	"apache-tomcat":            "tomcat",
	"apache-http-server":       "apache",
	"httpd":                    "apache",
	"dotnet":                   "dotnet",
	".net":                     "dotnet",
}

// warmSlugs is the product set the bulk warmer refreshes. It tracks the
// software most often seen in inventory scans rather than the full
// endoflife.date catalogue.
var warmSlugs = []string{
	"ubuntu", "debian", "rhel", "windows-server", "nodejs", "postgresql",
	"mysql", "php", "python", "java", "tomcat", "kubernetes", "go",
}

// EndOfLife is the vendor-agnostic agent backed by the endoflife.date
// JSON API. It sits last in the registry and accepts any product, so
// routing always has a generic candidate before the browser fallback.
type EndOfLife struct {
	*agent.Base
	deps    agent.Deps
	apiBase string
}

// NewEndOfLife creates the endoflife.date agent.
func NewEndOfLife(deps agent.Deps) *EndOfLife {
	e := &EndOfLife{deps: deps, apiBase: endOfLifeAPIBase}
	e.Base = agent.NewBase("endoflife", nil, []agent.SourceURL{
		{URL: "https://endoflife.date/api/", Description: "endoflife.date API", Priority: 1, Active: true},
	}, nil, e.scrape, deps)
	return e
}

// IsRelevant always reports true: any product may have an endoflife.date
// entry, and a miss is a cheap 404.
func (e *EndOfLife) IsRelevant(string) bool { return true }

func (e *EndOfLife) scrape(ctx context.Context, software, version string) (*agent.ScrapeResult, error) {
	slug := ProductSlug(software)
	if slug == "" {
		return nil, nil
	}
	cycles, url, err := e.fetchProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	var found *agent.ScrapeResult
	cycles.ForEach(func(_, value gjson.Result) bool {
		cycle := value.Get("cycle").String()
		if version != "" && !agent.VersionsCompatible(version, cycle) {
			return true
		}
		found = endOfLifeResult(value, url)
		return found == nil
	})
	return found, nil
}

// BulkFetch refreshes every cycle of the warm product set.
func (e *EndOfLife) BulkFetch(ctx context.Context) (int, error) {
	start := time.Now()
	cached := 0
	var lastErr error
	for _, slug := range warmSlugs {
		cycles, url, err := e.fetchProduct(ctx, slug)
		if err != nil {
			lastErr = err
			continue
		}
		cycles.ForEach(func(_, value gjson.Result) bool {
			if result := endOfLifeResult(value, url); result != nil {
				e.CacheScraped(ctx, slug, result.Cycle, result)
				cached++
			}
			return true
		})
	}
	e.recordBulk(start, cached, cached == 0 && lastErr != nil)
	if cached == 0 {
		if lastErr != nil {
			return 0, lastErr
		}
		return 0, errNoListing
	}
	return cached, nil
}

func (e *EndOfLife) fetchProduct(ctx context.Context, slug string) (gjson.Result, string, error) {
	url := fmt.Sprintf("%s/%s.json", e.apiBase, slug)
	body, err := e.deps.Fetcher.Get(ctx, url)
	if err != nil {
		// A non-2xx response means the product is not in the catalogue,
		// which is an ordinary miss rather than a scrape failure.
		if errors.Is(err, scrape.ErrUpstreamStatus) {
			return gjson.Result{}, url, nil
		}
		return gjson.Result{}, url, err
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return gjson.Result{}, url, nil
	}
	return parsed, url, nil
}

// endOfLifeResult maps one API cycle object. The eol field is either a
// date string or boolean false for still-supported cycles; a boolean
// yields no lifecycle date and the cycle is skipped.
func endOfLifeResult(value gjson.Result, url string) *agent.ScrapeResult {
	eol := value.Get("eol")
	if eol.Type != gjson.String || eol.String() == "" {
		return nil
	}
	result := &agent.ScrapeResult{
		Cycle:       value.Get("cycle").String(),
		EOLDate:     eol.String(),
		ReleaseDate: value.Get("releaseDate").String(),
		SourceURL:   url,
	}
	if support := value.Get("support"); support.Type == gjson.String {
		result.SupportEndDate = support.String()
	}
	extra := map[string]any{}
	if latest := value.Get("latest").String(); latest != "" {
		extra["latest"] = latest
	}
	if value.Get("lts").Bool() {
		extra["lts"] = true
	}
	if len(extra) > 0 {
		result.Extra = extra
	}
	return result
}

// ProductSlug normalizes a software name into an endoflife.date product
// slug, consulting the alias table first.
func ProductSlug(software string) string {
	normalized := strings.ToLower(strings.TrimSpace(software))
	normalized = strings.Join(strings.Fields(normalized), "-")
	if slug, ok := endOfLifeSlugs[normalized]; ok {
		return slug
	}
	return normalized
}

func (e *EndOfLife) recordBulk(start time.Time, records int, failed bool) {
	if e.deps.Telemetry == nil {
		return
	}
	e.deps.Telemetry.RecordRequest(e.Name(), telemetry.Sample{
		Duration:         time.Since(start),
		URL:              e.apiBase,
		Error:            failed,
		RecordsExtracted: records,
	})
}
