package vendors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
)

// NewSUSE creates the agent for SUSE Linux Enterprise and openSUSE.
func NewSUSE(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://www.suse.com/lifecycle/", Description: "SUSE product lifecycle", Priority: 1, Active: true},
		{URL: "https://en.opensuse.org/Lifetime", Description: "openSUSE lifetime wiki", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("sles", map[string]agent.Cycle{
		"sles-12": {Cycle: "12 SP5", ReleaseDate: "2014-10-27", SupportEndDate: "2024-10-31",
			EOLDate: "2027-10-31", Link: "https://www.suse.com/lifecycle/"},
		"sles-15": {Cycle: "15", ReleaseDate: "2018-07-16", SupportEndDate: "2031-07-31",
			EOLDate: "2034-07-31", Link: "https://www.suse.com/lifecycle/"},
		"opensuse-leap-15.5": {Cycle: "Leap 15.5", ReleaseDate: "2023-06-07",
			EOLDate: "2024-12-31", Link: "https://en.opensuse.org/Lifetime"},
		"opensuse-leap-15.6": {Cycle: "Leap 15.6", ReleaseDate: "2024-06-12",
			EOLDate: "2025-12-31", Link: "https://en.opensuse.org/Lifetime"},
	})

	return agent.NewBase("suse",
		[]string{"suse", "sles", "opensuse", "leap"},
		urls, static, scrapeURLs(deps, urls, parseSUSELifecycle), deps)
}

func parseSUSELifecycle(doc *goquery.Document, software, version string) *agent.ScrapeResult {
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		productCol := scrape.HeaderIndex(header, "product", "version", "release")
		supportCol := scrape.HeaderIndex(header, "general support", "end of general support")
		eolCol := scrape.HeaderIndex(header, "ltss", "end of life", "eol", "extended support")
		if productCol < 0 || (eolCol < 0 && supportCol < 0) {
			continue
		}
		for _, row := range rows[1:] {
			product := row.Cell(productCol)
			if product == "" {
				continue
			}
			if version != "" && !agent.VersionsCompatible(version, product) && !containsFold(product, version) {
				continue
			}
			eol := dateparse.ParseISO(row.Cell(eolCol))
			support := dateparse.ParseISO(row.Cell(supportCol))
			if eol == "" && support == "" {
				continue
			}
			if eol == "" {
				eol = support
			}
			return &agent.ScrapeResult{
				Cycle:          product,
				EOLDate:        eol,
				SupportEndDate: support,
			}
		}
	}
	return nil
}
