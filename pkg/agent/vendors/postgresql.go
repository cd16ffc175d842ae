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

const postgresVersioningURL = "https://www.postgresql.org/support/versioning/"

// PostgreSQL answers for PostgreSQL major versions. The versioning policy
// page lists every major with its final-release date, which doubles as
// the bulk warming source.
type PostgreSQL struct {
	*agent.Base
	deps agent.Deps
}

// NewPostgreSQL creates the PostgreSQL agent.
func NewPostgreSQL(deps agent.Deps) *PostgreSQL {
	urls := []agent.SourceURL{
		{URL: postgresVersioningURL, Description: "PostgreSQL versioning policy", Priority: 1, Active: true},
	}
	static := agent.NewStaticTable("postgresql", map[string]agent.Cycle{
		"postgresql-12": {Cycle: "12", ReleaseDate: "2019-10-03",
			EOLDate: "2024-11-14", Link: postgresVersioningURL},
		"postgresql-13": {Cycle: "13", ReleaseDate: "2020-09-24",
			EOLDate: "2025-11-13", Link: postgresVersioningURL},
		"postgresql-14": {Cycle: "14", ReleaseDate: "2021-09-30",
			EOLDate: "2026-11-12", Link: postgresVersioningURL},
		"postgresql-15": {Cycle: "15", ReleaseDate: "2022-10-13",
			EOLDate: "2027-11-11", Link: postgresVersioningURL},
		"postgresql-16": {Cycle: "16", ReleaseDate: "2023-09-14",
			EOLDate: "2028-11-09", Link: postgresVersioningURL},
		"postgresql-17": {Cycle: "17", ReleaseDate: "2024-09-26",
			EOLDate: "2029-11-08", Link: postgresVersioningURL},
	})

	p := &PostgreSQL{deps: deps}
	p.Base = agent.NewBase("postgresql",
		[]string{"postgres", "postgresql", "pgsql"},
		urls, static, scrapeURLs(deps, urls, parsePostgresVersioning), deps)
	return p
}

// parsePostgresVersioning reads the policy table: version, current minor,
// supported flag, first and final release dates.
func parsePostgresVersioning(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	major := agent.Major(version)
	for _, row := range postgresRows(doc) {
		if major != "" && agent.Major(row.Cycle) != major {
			continue
		}
		result := row
		return &result
	}
	return nil
}

// BulkFetch caches every major line the policy page lists.
func (p *PostgreSQL) BulkFetch(ctx context.Context) (int, error) {
	start := time.Now()
	doc, err := p.deps.Fetcher.GetDocument(ctx, postgresVersioningURL)
	if err != nil {
		p.recordBulk(start, 0, true)
		return 0, err
	}
	cached := 0
	for _, row := range postgresRows(doc) {
		result := row
		p.CacheScraped(ctx, "postgresql", row.Cycle, &result)
		cached++
	}
	if cached == 0 {
		p.recordBulk(start, 0, false)
		return 0, errNoListing
	}
	p.recordBulk(start, cached, false)
	return cached, nil
}

func postgresRows(doc *goquery.Document) []agent.ScrapeResult {
	var results []agent.ScrapeResult
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		versionCol := scrape.HeaderIndex(header, "version")
		releaseCol := scrape.HeaderIndex(header, "first release")
		eolCol := scrape.HeaderIndex(header, "final release", "eol")
		if versionCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(versionCol)
			eol := dateparse.ParseISO(row.Cell(eolCol))
			if cycle == "" || eol == "" {
				continue
			}
			results = append(results, agent.ScrapeResult{
				Cycle:       cycle,
				EOLDate:     eol,
				ReleaseDate: dateparse.ParseISO(row.Cell(releaseCol)),
				SourceURL:   postgresVersioningURL,
			})
		}
	}
	return results
}

func (p *PostgreSQL) recordBulk(start time.Time, records int, failed bool) {
	if p.deps.Telemetry == nil {
		return
	}
	p.deps.Telemetry.RecordRequest(p.Name(), telemetry.Sample{
		Duration:         time.Since(start),
		URL:              postgresVersioningURL,
		Error:            failed,
		RecordsExtracted: records,
	})
}
