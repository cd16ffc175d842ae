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

const pythonVersionsURL = "https://devguide.python.org/versions/"

// Python answers for CPython minor lines from the devguide version table.
type Python struct {
	*agent.Base
	deps agent.Deps
}

// NewPython creates the Python agent.
func NewPython(deps agent.Deps) *Python {
	urls := []agent.SourceURL{
		{URL: pythonVersionsURL, Description: "CPython release cycle", Priority: 1, Active: true},
	}
	static := agent.NewStaticTable("python", map[string]agent.Cycle{
		"python-2.7": {Cycle: "2.7", ReleaseDate: "2010-07-03",
			EOLDate: "2020-01-01", Link: pythonVersionsURL},
		"python-3.8": {Cycle: "3.8", ReleaseDate: "2019-10-14",
			EOLDate: "2024-10-07", Link: pythonVersionsURL},
		"python-3.9": {Cycle: "3.9", ReleaseDate: "2020-10-05",
			EOLDate: "2025-10-31", Link: pythonVersionsURL},
		"python-3.10": {Cycle: "3.10", ReleaseDate: "2021-10-04",
			EOLDate: "2026-10-31", Link: pythonVersionsURL},
		"python-3.11": {Cycle: "3.11", ReleaseDate: "2022-10-24",
			EOLDate: "2027-10-31", Link: pythonVersionsURL},
		"python-3.12": {Cycle: "3.12", ReleaseDate: "2023-10-02",
			EOLDate: "2028-10-31", Link: pythonVersionsURL},
		"python-3.13": {Cycle: "3.13", ReleaseDate: "2024-10-07",
			EOLDate: "2029-10-31", Link: pythonVersionsURL},
	})

	p := &Python{deps: deps}
	p.Base = agent.NewBase("python",
		[]string{"python", "cpython"},
		urls, static, scrapeURLs(deps, urls, parsePythonVersions), deps)
	return p
}

// parsePythonVersions reads the devguide table: branch, status, first
// release, end of life.
func parsePythonVersions(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	branch := agent.MajorMinor(version)
	for _, row := range pythonRows(doc) {
		if branch != "" && !agent.VersionsCompatible(branch, row.Cycle) {
			continue
		}
		result := row
		return &result
	}
	return nil
}

// BulkFetch caches every branch the devguide table lists.
func (p *Python) BulkFetch(ctx context.Context) (int, error) {
	start := time.Now()
	doc, err := p.deps.Fetcher.GetDocument(ctx, pythonVersionsURL)
	if err != nil {
		p.recordBulk(start, 0, true)
		return 0, err
	}
	cached := 0
	for _, row := range pythonRows(doc) {
		result := row
		p.CacheScraped(ctx, "python", row.Cycle, &result)
		cached++
	}
	if cached == 0 {
		p.recordBulk(start, 0, false)
		return 0, errNoListing
	}
	p.recordBulk(start, cached, false)
	return cached, nil
}

func pythonRows(doc *goquery.Document) []agent.ScrapeResult {
	var results []agent.ScrapeResult
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		branchCol := scrape.HeaderIndex(header, "branch", "version")
		releaseCol := scrape.HeaderIndex(header, "first release", "released")
		eolCol := scrape.HeaderIndex(header, "end of life", "end-of-life", "eol")
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
				Cycle:       cycle,
				EOLDate:     eol,
				ReleaseDate: dateparse.ParseISO(row.Cell(releaseCol)),
				SourceURL:   pythonVersionsURL,
			})
		}
	}
	return results
}

func (p *Python) recordBulk(start time.Time, records int, failed bool) {
	if p.deps.Telemetry == nil {
		return
	}
	p.deps.Telemetry.RecordRequest(p.Name(), telemetry.Sample{
		Duration:         time.Since(start),
		URL:              pythonVersionsURL,
		Error:            failed,
		RecordsExtracted: records,
	})
}
