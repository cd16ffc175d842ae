package vendors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
)

// NewOracle creates the agent for Oracle Linux and Oracle Database. The
// lifetime support policy is published as PDFs, so scraping goes through
// the community mirror; the static table carries the policy dates.
func NewOracle(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://endoflife.date/oracle-linux", Description: "Oracle Linux lifecycle mirror", Priority: 1, Active: true},
		{URL: "https://endoflife.date/oracle-database", Description: "Oracle Database lifecycle mirror", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("oracle-linux", map[string]agent.Cycle{
		"oracle-linux-7": {Cycle: "7", ReleaseDate: "2014-07-23", SupportEndDate: "2024-12-31",
			EOLDate: "2028-06-30", Link: "https://www.oracle.com/a/ocom/docs/elsp-lifetime-069338.pdf"},
		"oracle-linux-8": {Cycle: "8", ReleaseDate: "2019-07-18", SupportEndDate: "2029-07-31",
			EOLDate: "2032-07-31", Link: "https://www.oracle.com/a/ocom/docs/elsp-lifetime-069338.pdf"},
		"oracle-linux-9": {Cycle: "9", ReleaseDate: "2022-06-30", SupportEndDate: "2032-06-30",
			EOLDate: "2035-06-30", Link: "https://www.oracle.com/a/ocom/docs/elsp-lifetime-069338.pdf"},
		"oracle-database-19c": {Cycle: "19c", ReleaseDate: "2019-02-13", SupportEndDate: "2026-04-30",
			EOLDate: "2029-04-30", Link: "https://www.oracle.com/database/technologies/"},
		"oracle-database-21c": {Cycle: "21c", ReleaseDate: "2021-08-13",
			EOLDate: "2025-04-30", Link: "https://www.oracle.com/database/technologies/"},
		"oracle-database-23ai": {Cycle: "23ai", ReleaseDate: "2024-05-02",
			EOLDate: "2032-05-31", Link: "https://www.oracle.com/database/technologies/"},
	})

	return agent.NewBase("oracle",
		[]string{"oracle"},
		urls, static, scrapeURLs(deps, urls, parseLifecycleMirror), deps)
}

// parseLifecycleMirror handles the common endoflife.date HTML layout: a
// table whose first column is the release cycle and whose remaining
// columns carry support and EOL dates. Several agents that lack a
// scrapable vendor page share it.
func parseLifecycleMirror(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		cycleCol := scrape.HeaderIndex(header, "cycle", "version", "release")
		supportCol := scrape.HeaderIndex(header, "active support", "support", "premier support")
		eolCol := scrape.HeaderIndex(header, "security support", "end of life", "eol", "extended support")
		releaseCol := scrape.HeaderIndex(header, "released", "release date")
		if cycleCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(cycleCol)
			if cycle == "" || (version != "" && !agent.VersionsCompatible(version, cycle)) {
				continue
			}
			eol := dateparse.ParseISO(row.Cell(eolCol))
			if eol == "" {
				continue
			}
			return &agent.ScrapeResult{
				Cycle:          cycle,
				EOLDate:        eol,
				SupportEndDate: dateparse.ParseISO(row.Cell(supportCol)),
				ReleaseDate:    dateparse.ParseISO(row.Cell(releaseCol)),
			}
		}
	}
	return nil
}
