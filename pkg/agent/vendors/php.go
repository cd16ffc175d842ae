package vendors

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

const phpSupportedVersionsURL = "https://www.php.net/supported-versions.php"

// PHP answers for PHP minor lines from php.net's supported versions table.
type PHP struct {
	*agent.Base
	deps agent.Deps
}

// NewPHP creates the PHP agent.
func NewPHP(deps agent.Deps) *PHP {
	urls := []agent.SourceURL{
		{URL: phpSupportedVersionsURL, Description: "PHP supported versions", Priority: 1, Active: true},
		{URL: "https://www.php.net/eol.php", Description: "PHP unsupported branches", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("php", map[string]agent.Cycle{
		"php-7.4": {Cycle: "7.4", ReleaseDate: "2019-11-28", SupportEndDate: "2021-11-28",
			EOLDate: "2022-11-28", Link: "https://www.php.net/eol.php"},
		"php-8.1": {Cycle: "8.1", ReleaseDate: "2021-11-25", SupportEndDate: "2023-11-25",
			EOLDate: "2025-12-31", Link: phpSupportedVersionsURL},
		"php-8.2": {Cycle: "8.2", ReleaseDate: "2022-12-08", SupportEndDate: "2024-12-31",
			EOLDate: "2026-12-31", Link: phpSupportedVersionsURL},
		"php-8.3": {Cycle: "8.3", ReleaseDate: "2023-11-23", SupportEndDate: "2025-12-31",
			EOLDate: "2027-12-31", Link: phpSupportedVersionsURL},
		"php-8.4": {Cycle: "8.4", ReleaseDate: "2024-11-21", SupportEndDate: "2026-12-31",
			EOLDate: "2028-12-31", Link: phpSupportedVersionsURL},
	})

	p := &PHP{deps: deps}
	p.Base = agent.NewBase("php",
		[]string{"php"},
		urls, static, scrapeURLs(deps, urls, parsePHPVersions), deps)
	return p
}

// parsePHPVersions reads the branch table: branch, initial release, active
// support until, security support until.
func parsePHPVersions(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	branch := agent.MajorMinor(version)
	for _, row := range phpRows(doc) {
		if branch != "" && !agent.VersionsCompatible(branch, row.Cycle) {
			continue
		}
		result := row
		return &result
	}
	return nil
}

// BulkFetch caches every branch the supported-versions table lists.
func (p *PHP) BulkFetch(ctx context.Context) (int, error) {
	start := time.Now()
	doc, err := p.deps.Fetcher.GetDocument(ctx, phpSupportedVersionsURL)
	if err != nil {
		p.recordBulk(start, 0, true)
		return 0, err
	}
	cached := 0
	for _, row := range phpRows(doc) {
		result := row
		p.CacheScraped(ctx, "php", row.Cycle, &result)
		cached++
	}
	if cached == 0 {
		p.recordBulk(start, 0, false)
		return 0, errNoListing
	}
	p.recordBulk(start, cached, false)
	return cached, nil
}

func phpRows(doc *goquery.Document) []agent.ScrapeResult {
	var results []agent.ScrapeResult
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		branchCol := scrape.HeaderIndex(header, "branch", "version")
		releaseCol := scrape.HeaderIndex(header, "initial release", "released")
		supportCol := scrape.HeaderIndex(header, "active support until", "active support")
		eolCol := scrape.HeaderIndex(header, "security support until", "security support", "end of life")
		if branchCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(branchCol)
			eol := dateparse.ParseISO(row.Cell(eolCol))
			if cycle == "" || eol == "" {
				continue
			}
			results = append(results, agent.ScrapeResult{
				Cycle:          cycle,
				EOLDate:        eol,
				SupportEndDate: dateparse.ParseISO(row.Cell(supportCol)),
				ReleaseDate:    dateparse.ParseISO(row.Cell(releaseCol)),
				SourceURL:      phpSupportedVersionsURL,
			})
		}
	}
	return results
}

func (p *PHP) recordBulk(start time.Time, records int, failed bool) {
	if p.deps.Telemetry == nil {
		return
	}
	p.deps.Telemetry.RecordRequest(p.Name(), telemetry.Sample{
		Duration:         time.Since(start),
		URL:              phpSupportedVersionsURL,
		Error:            failed,
		RecordsExtracted: records,
	})
}
