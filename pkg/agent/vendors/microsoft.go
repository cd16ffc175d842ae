package vendors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
)

// Microsoft answers for Windows, Windows Server, SQL Server, Exchange and
// the Office line. The lifecycle site is authoritative but JavaScript
// heavy, so the static table carries the widely deployed products and the
// HTML parser only handles the export tables the docs pages still render
// server side.
type Microsoft struct {
	*agent.Base
}

// NewMicrosoft creates the Microsoft agent.
func NewMicrosoft(deps agent.Deps) *Microsoft {
	urls := []agent.SourceURL{
		{URL: "https://learn.microsoft.com/en-us/lifecycle/products/", Description: "Microsoft Lifecycle", Priority: 1, Active: true},
		{URL: "https://learn.microsoft.com/en-us/windows/release-health/release-information", Description: "Windows release health", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("windows", map[string]agent.Cycle{
		"windows-server-2012": {Cycle: "2012", ReleaseDate: "2012-10-30", SupportEndDate: "2018-10-09",
			EOLDate: "2023-10-10", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-server-2012"},
		"windows-server-2012-r2": {Cycle: "2012 R2", ReleaseDate: "2013-11-25", SupportEndDate: "2018-10-09",
			EOLDate: "2023-10-10", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-server-2012-r2"},
		"windows-server-2016": {Cycle: "2016", ReleaseDate: "2016-10-15", SupportEndDate: "2022-01-11",
			EOLDate: "2027-01-12", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-server-2016"},
		"windows-server-2019": {Cycle: "2019", ReleaseDate: "2018-11-13", SupportEndDate: "2024-01-09",
			EOLDate: "2029-01-09", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-server-2019"},
		"windows-server-2022": {Cycle: "2022", ReleaseDate: "2021-08-18", SupportEndDate: "2026-10-13",
			EOLDate: "2031-10-14", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-server-2022"},
		"windows-10": {Cycle: "10 22H2", ReleaseDate: "2015-07-29",
			EOLDate: "2025-10-14", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-10-home-and-pro"},
		"windows-11": {Cycle: "11 24H2", ReleaseDate: "2021-10-04",
			EOLDate: "2026-10-13", Link: "https://learn.microsoft.com/en-us/lifecycle/products/windows-11-home-and-pro"},
		"sql-server-2014": {Cycle: "2014", ReleaseDate: "2014-06-05", SupportEndDate: "2019-07-09",
			EOLDate: "2024-07-09", Link: "https://learn.microsoft.com/en-us/lifecycle/products/sql-server-2014"},
		"sql-server-2016": {Cycle: "2016", ReleaseDate: "2016-06-01", SupportEndDate: "2021-07-13",
			EOLDate: "2026-07-14", Link: "https://learn.microsoft.com/en-us/lifecycle/products/sql-server-2016"},
		"sql-server-2019": {Cycle: "2019", ReleaseDate: "2019-11-04", SupportEndDate: "2025-02-28",
			EOLDate: "2030-01-08", Link: "https://learn.microsoft.com/en-us/lifecycle/products/sql-server-2019"},
		"sql-server-2022": {Cycle: "2022", ReleaseDate: "2022-11-16", SupportEndDate: "2028-01-11",
			EOLDate: "2033-01-11", Link: "https://learn.microsoft.com/en-us/lifecycle/products/sql-server-2022"},
		"exchange-server-2016": {Cycle: "2016", ReleaseDate: "2015-10-01",
			EOLDate: "2025-10-14", Link: "https://learn.microsoft.com/en-us/lifecycle/products/exchange-server-2016"},
		"exchange-server-2019": {Cycle: "2019", ReleaseDate: "2018-10-22",
			EOLDate: "2025-10-14", Link: "https://learn.microsoft.com/en-us/lifecycle/products/exchange-server-2019"},
	})

	m := &Microsoft{}
	m.Base = agent.NewBase("microsoft",
		[]string{"microsoft", "windows", "sql server", "exchange", "sharepoint", "office", "visual studio", ".net framework"},
		urls, static, scrapeURLs(deps, urls, parseMicrosoftLifecycle), deps)
	return m
}

// parseMicrosoftLifecycle scans lifecycle tables whose first column names
// the product and whose remaining columns carry the retirement dates.
func parseMicrosoftLifecycle(doc *goquery.Document, software, version string) *agent.ScrapeResult {
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		eolCol := scrape.HeaderIndex(header, "extended end date", "retirement date", "end of servicing", "end date")
		supportCol := scrape.HeaderIndex(header, "mainstream end date", "end of support")
		releaseCol := scrape.HeaderIndex(header, "start date", "availability", "release")
		if eolCol < 0 && supportCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			product := row.Cell(0)
			if product == "" || !containsFold(product, software) {
				continue
			}
			if version != "" && !containsFold(product, version) {
				continue
			}
			eol := dateparse.ParseISO(row.Cell(eolCol))
			support := dateparse.ParseISO(row.Cell(supportCol))
			if eol == "" && support == "" {
				continue
			}
			return &agent.ScrapeResult{
				Cycle:          product,
				EOLDate:        eol,
				SupportEndDate: support,
				ReleaseDate:    dateparse.ParseISO(row.Cell(releaseCol)),
			}
		}
	}
	return nil
}

var _ agent.Agent = (*Microsoft)(nil)
