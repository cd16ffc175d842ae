package vendors

import (
	"github.com/codeready-toolchain/eolscout/pkg/agent"
)

// NewMySQL creates the MySQL agent. Oracle's lifetime support policy for
// MySQL is PDF-only, so the lifecycle mirror is the scrape target and the
// static table carries the published policy dates.
func NewMySQL(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://endoflife.date/mysql", Description: "MySQL lifecycle mirror", Priority: 1, Active: true},
		{URL: "https://www.mysql.com/support/supportedplatforms/database.html", Description: "MySQL supported platforms", Priority: 2, Active: false},
	}
	static := agent.NewStaticTable("mysql", map[string]agent.Cycle{
		"mysql-5.7": {Cycle: "5.7", ReleaseDate: "2015-10-21", SupportEndDate: "2020-10-31",
			EOLDate: "2023-10-31", Link: "https://endoflife.date/mysql"},
		"mysql-8.0": {Cycle: "8.0", ReleaseDate: "2018-04-19", SupportEndDate: "2025-04-30",
			EOLDate: "2026-04-30", LTS: true, Link: "https://endoflife.date/mysql"},
		"mysql-8.4": {Cycle: "8.4", ReleaseDate: "2024-04-30", SupportEndDate: "2029-04-30",
			EOLDate: "2032-04-30", LTS: true, Link: "https://endoflife.date/mysql"},
	})

	return agent.NewBase("mysql",
		[]string{"mysql"},
		urls, static, scrapeURLs(deps, urls, parseLifecycleMirror), deps)
}
