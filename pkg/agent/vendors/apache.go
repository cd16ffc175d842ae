package vendors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
)

// NewApache creates the agent covering the Apache Software Foundation
// projects the inventory commonly reports: httpd, Tomcat, Kafka and
// Spark. Each project publishes its own EOL page, so the URL registry
// carries one entry per project and the parser accepts any of their
// table layouts.
func NewApache(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://tomcat.apache.org/whichversion.html", Description: "Tomcat version guide", Priority: 1, Active: true},
		{URL: "https://httpd.apache.org/download.cgi", Description: "httpd releases", Priority: 2, Active: true},
		{URL: "https://endoflife.date/apache-kafka", Description: "Kafka lifecycle mirror", Priority: 3, Active: true},
	}
	static := agent.NewStaticTable("tomcat", map[string]agent.Cycle{
		"tomcat-8.5": {Cycle: "8.5", ReleaseDate: "2016-06-13",
			EOLDate: "2024-03-31", Link: "https://tomcat.apache.org/tomcat-85-eol.html"},
		"tomcat-9": {Cycle: "9.0", ReleaseDate: "2018-01-18",
			EOLDate: "2027-12-31", Link: "https://tomcat.apache.org/whichversion.html"},
		"tomcat-10.1": {Cycle: "10.1", ReleaseDate: "2022-09-23",
			EOLDate: "2027-12-31", Link: "https://tomcat.apache.org/whichversion.html"},
		"tomcat-11": {Cycle: "11.0", ReleaseDate: "2024-10-09",
			Link: "https://tomcat.apache.org/whichversion.html"},
		"httpd-2.4": {Cycle: "2.4", ReleaseDate: "2012-02-21",
			Link: "https://httpd.apache.org/"},
		"kafka-3.7": {Cycle: "3.7", ReleaseDate: "2024-02-26",
			EOLDate: "2025-02-26", Link: "https://endoflife.date/apache-kafka"},
	})

	return agent.NewBase("apache",
		[]string{"apache", "httpd", "tomcat", "kafka", "spark"},
		urls, static, scrapeURLs(deps, urls, parseApacheVersions), deps)
}

// parseApacheVersions handles the Tomcat "which version" table: one row
// per major line with supported Java versions and the declared EOL.
func parseApacheVersions(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		versionCol := scrape.HeaderIndex(header, "version", "latest released version")
		eolCol := scrape.HeaderIndex(header, "end of life", "eol")
		releaseCol := scrape.HeaderIndex(header, "first release", "released")
		if versionCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(versionCol)
			if cycle == "" || (version != "" && !agent.VersionsCompatible(version, cycle)) {
				continue
			}
			eol := dateparse.ParseISO(row.Cell(eolCol))
			if eol == "" {
				continue
			}
			return &agent.ScrapeResult{
				Cycle:       cycle,
				EOLDate:     eol,
				ReleaseDate: dateparse.ParseISO(row.Cell(releaseCol)),
			}
		}
	}
	return nil
}
