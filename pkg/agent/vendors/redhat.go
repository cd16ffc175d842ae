package vendors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
)

// NewRedHat creates the agent for RHEL, CentOS and Fedora. The errata
// policy page on the customer portal renders the support phase table
// without JavaScript, so it is the primary scrape target; CentOS dates
// are frozen in the static table since the distribution is discontinued.
func NewRedHat(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://access.redhat.com/support/policy/updates/errata", Description: "RHEL life cycle policy", Priority: 1, Active: true},
		{URL: "https://endoflife.date/rhel", Description: "endoflife.date RHEL page", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("rhel", map[string]agent.Cycle{
		"rhel-6": {Cycle: "6", ReleaseDate: "2010-11-09", SupportEndDate: "2020-11-30",
			EOLDate: "2024-06-30", Link: "https://access.redhat.com/support/policy/updates/errata"},
		"rhel-7": {Cycle: "7", ReleaseDate: "2013-12-11", SupportEndDate: "2024-06-30",
			EOLDate: "2028-06-30", Link: "https://access.redhat.com/support/policy/updates/errata"},
		"rhel-8": {Cycle: "8", ReleaseDate: "2019-05-07", SupportEndDate: "2029-05-31",
			EOLDate: "2032-05-31", Link: "https://access.redhat.com/support/policy/updates/errata"},
		"rhel-9": {Cycle: "9", ReleaseDate: "2022-05-17", SupportEndDate: "2032-05-31",
			EOLDate: "2035-05-31", Link: "https://access.redhat.com/support/policy/updates/errata"},
		"centos-7": {Cycle: "7", ReleaseDate: "2014-07-07",
			EOLDate: "2024-06-30", Link: "https://www.centos.org/centos-linux-eol/"},
		"centos-8": {Cycle: "8", ReleaseDate: "2019-09-24",
			EOLDate: "2021-12-31", Link: "https://www.centos.org/centos-linux-eol/"},
		"centos-stream-9": {Cycle: "Stream 9", ReleaseDate: "2021-12-03",
			EOLDate: "2027-05-31", Link: "https://www.centos.org/cl-vs-cs/"},
	})

	return agent.NewBase("redhat",
		[]string{"red hat", "redhat", "rhel", "centos", "fedora"},
		urls, static, scrapeURLs(deps, urls, parseRedHatErrata), deps)
}

// parseRedHatErrata reads the life-cycle phase table: one row per major
// release, with maintenance and extended-support end dates per column.
func parseRedHatErrata(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	major := agent.Major(version)
	if major == "" {
		return nil
	}
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		versionCol := scrape.HeaderIndex(header, "version", "release", "cycle")
		supportCol := scrape.HeaderIndex(header, "full support", "maintenance support", "active support")
		eolCol := scrape.HeaderIndex(header, "end of maintenance", "extended life", "end of life", "eol", "security support")
		if versionCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(versionCol)
			if cycle == "" || !agent.VersionsCompatible(version, cycle) {
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
			}
		}
	}
	return nil
}
