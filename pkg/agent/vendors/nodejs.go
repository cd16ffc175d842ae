package vendors

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

const nodeScheduleURL = "https://raw.githubusercontent.com/nodejs/Release/main/schedule.json"

// NodeJS answers for Node.js release lines. The release working group
// publishes the whole schedule as one JSON document, so both the scraper
// and the bulk warmer read that instead of HTML.
type NodeJS struct {
	*agent.Base
	deps agent.Deps
}

// NewNodeJS creates the Node.js agent.
func NewNodeJS(deps agent.Deps) *NodeJS {
	urls := []agent.SourceURL{
		{URL: nodeScheduleURL, Description: "Node.js release schedule", Priority: 1, Active: true},
		{URL: "https://nodejs.org/en/about/previous-releases", Description: "Node.js release history", Priority: 2, Active: false},
	}
	static := agent.NewStaticTable("nodejs", map[string]agent.Cycle{
		"nodejs-16": {Cycle: "16", ReleaseDate: "2021-04-20", SupportEndDate: "2022-10-18",
			EOLDate: "2023-09-11", LTS: true, Codename: "Gallium", Link: nodeScheduleURL},
		"nodejs-18": {Cycle: "18", ReleaseDate: "2022-04-19", SupportEndDate: "2023-10-18",
			EOLDate: "2025-04-30", LTS: true, Codename: "Hydrogen", Link: nodeScheduleURL},
		"nodejs-20": {Cycle: "20", ReleaseDate: "2023-04-18", SupportEndDate: "2024-10-22",
			EOLDate: "2026-04-30", LTS: true, Codename: "Iron", Link: nodeScheduleURL},
		"nodejs-22": {Cycle: "22", ReleaseDate: "2024-04-24", SupportEndDate: "2025-10-21",
			EOLDate: "2027-04-30", LTS: true, Codename: "Jod", Link: nodeScheduleURL},
	})

	n := &NodeJS{deps: deps}
	n.Base = agent.NewBase("nodejs",
		[]string{"node", "nodejs", "node.js"},
		urls, static, n.scrape, deps)
	return n
}

func (n *NodeJS) scrape(ctx context.Context, _ string, version string) (*agent.ScrapeResult, error) {
	schedule, err := n.fetchSchedule(ctx)
	if err != nil {
		return nil, err
	}
	major := agent.Major(version)
	var found *agent.ScrapeResult
	schedule.ForEach(func(key, value gjson.Result) bool {
		line := strings.TrimPrefix(key.String(), "v")
		if major != "" && line != major {
			return true
		}
		found = nodeResultFromLine(line, value)
		return false
	})
	return found, nil
}

// BulkFetch caches every release line from the schedule in one request.
func (n *NodeJS) BulkFetch(ctx context.Context) (int, error) {
	start := time.Now()
	schedule, err := n.fetchSchedule(ctx)
	if err != nil {
		n.recordBulk(start, 0, true)
		return 0, err
	}
	cached := 0
	schedule.ForEach(func(key, value gjson.Result) bool {
		line := strings.TrimPrefix(key.String(), "v")
		if result := nodeResultFromLine(line, value); result != nil {
			n.CacheScraped(ctx, "nodejs", line, result)
			cached++
		}
		return true
	})
	if cached == 0 {
		n.recordBulk(start, 0, false)
		return 0, errNoListing
	}
	n.recordBulk(start, cached, false)
	return cached, nil
}

func (n *NodeJS) fetchSchedule(ctx context.Context) (gjson.Result, error) {
	body, err := n.deps.Fetcher.Get(ctx, nodeScheduleURL)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(body), nil
}

func nodeResultFromLine(line string, value gjson.Result) *agent.ScrapeResult {
	eol := value.Get("end").String()
	if eol == "" {
		return nil
	}
	result := &agent.ScrapeResult{
		Cycle:          line,
		EOLDate:        eol,
		SupportEndDate: value.Get("maintenance").String(),
		ReleaseDate:    value.Get("start").String(),
		SourceURL:      nodeScheduleURL,
	}
	if codename := value.Get("codename").String(); codename != "" {
		result.Extra = map[string]any{"codename": codename, "lts": true}
	}
	return result
}

func (n *NodeJS) recordBulk(start time.Time, records int, failed bool) {
	if n.deps.Telemetry == nil {
		return
	}
	n.deps.Telemetry.RecordRequest(n.Name(), telemetry.Sample{
		Duration:         time.Since(start),
		URL:              nodeScheduleURL,
		Error:            failed,
		RecordsExtracted: records,
	})
}
