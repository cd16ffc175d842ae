package vendors

import (
	"github.com/codeready-toolchain/eolscout/pkg/agent"
)

// NewJava creates the agent for Oracle Java SE and OpenJDK. Support
// windows differ per distributor; the dates here follow Oracle's
// published roadmap for the LTS releases, which is what inventory scans
// overwhelmingly report.
func NewJava(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://www.oracle.com/java/technologies/java-se-support-roadmap.html", Description: "Java SE support roadmap", Priority: 1, Active: true},
		{URL: "https://endoflife.date/java", Description: "Java lifecycle mirror", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("java", map[string]agent.Cycle{
		"java-8": {Cycle: "8", ReleaseDate: "2014-03-18", SupportEndDate: "2022-03-31",
			EOLDate: "2030-12-31", LTS: true, Link: "https://www.oracle.com/java/technologies/java-se-support-roadmap.html"},
		"java-11": {Cycle: "11", ReleaseDate: "2018-09-25", SupportEndDate: "2023-09-30",
			EOLDate: "2032-01-31", LTS: true, Link: "https://www.oracle.com/java/technologies/java-se-support-roadmap.html"},
		"java-17": {Cycle: "17", ReleaseDate: "2021-09-14", SupportEndDate: "2026-09-30",
			EOLDate: "2029-09-30", LTS: true, Link: "https://www.oracle.com/java/technologies/java-se-support-roadmap.html"},
		"java-21": {Cycle: "21", ReleaseDate: "2023-09-19", SupportEndDate: "2028-09-30",
			EOLDate: "2031-09-30", LTS: true, Link: "https://www.oracle.com/java/technologies/java-se-support-roadmap.html"},
	})

	return agent.NewBase("java",
		[]string{"java", "jdk", "jre", "openjdk"},
		urls, static, scrapeURLs(deps, urls, parseLifecycleMirror), deps)
}
