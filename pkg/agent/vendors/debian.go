package vendors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
)

// NewDebian creates the Debian agent. The LTS wiki publishes a plain table
// of release, codename and schedule dates.
func NewDebian(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://wiki.debian.org/LTS", Description: "Debian LTS schedule", Priority: 1, Active: true},
		{URL: "https://www.debian.org/releases/", Description: "Debian releases index", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("debian", map[string]agent.Cycle{
		"debian-10": {Cycle: "10", ReleaseDate: "2019-07-06", SupportEndDate: "2022-09-10",
			EOLDate: "2024-06-30", Codename: "Buster", Link: "https://wiki.debian.org/LTS"},
		"debian-11": {Cycle: "11", ReleaseDate: "2021-08-14", SupportEndDate: "2024-08-14",
			EOLDate: "2026-08-31", Codename: "Bullseye", Link: "https://wiki.debian.org/LTS"},
		"debian-12": {Cycle: "12", ReleaseDate: "2023-06-10", SupportEndDate: "2026-06-10",
			EOLDate: "2028-06-30", Codename: "Bookworm", Link: "https://wiki.debian.org/LTS"},
	})

	return agent.NewBase("debian",
		[]string{"debian", "buster", "bullseye", "bookworm", "trixie"},
		urls, static, scrapeURLs(deps, urls, parseDebianLTS), deps)
}

func parseDebianLTS(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	major := agent.Major(version)
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		versionCol := scrape.HeaderIndex(header, "version", "release")
		codenameCol := scrape.HeaderIndex(header, "codename", "code name")
		eolCol := scrape.HeaderIndex(header, "end of life", "eol", "lts until", "supported until")
		if versionCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(versionCol)
			if cycle == "" {
				continue
			}
			if major != "" && !agent.VersionsCompatible(version, cycle) {
				// Accept codename queries like "Debian Bullseye" too.
				if codenameCol < 0 || !containsFold(version, row.Cell(codenameCol)) {
					continue
				}
			}
			eol := dateparse.ParseISO(row.Cell(eolCol))
			if eol == "" {
				continue
			}
			result := &agent.ScrapeResult{Cycle: cycle, EOLDate: eol}
			if codename := row.Cell(codenameCol); codename != "" {
				result.Extra = map[string]any{"codename": codename}
			}
			return result
		}
	}
	return nil
}
