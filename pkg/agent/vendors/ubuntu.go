package vendors

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

// Ubuntu answers for Canonical's Ubuntu releases. The release wiki is the
// source of record; the static table covers the LTS lines whose dates are
// fixed by Canonical's published schedule.
type Ubuntu struct {
	*agent.Base
	deps agent.Deps
	urls []agent.SourceURL
}

// NewUbuntu creates the Ubuntu agent.
func NewUbuntu(deps agent.Deps) *Ubuntu {
	urls := []agent.SourceURL{
		{URL: "https://wiki.ubuntu.com/Releases", Description: "Ubuntu release wiki", Priority: 1, Active: true},
		{URL: "https://endoflife.date/api/ubuntu.json", Description: "endoflife.date Ubuntu feed", Priority: 2, Active: false},
	}
	static := agent.NewStaticTable("ubuntu", map[string]agent.Cycle{
		"ubuntu-18.04": {Cycle: "18.04 LTS", ReleaseDate: "2018-04-26", SupportEndDate: "2023-05-31",
			EOLDate: "2028-04-26", LTS: true, Codename: "Bionic Beaver", Link: "https://wiki.ubuntu.com/Releases"},
		"ubuntu-20.04": {Cycle: "20.04 LTS", ReleaseDate: "2020-04-23", SupportEndDate: "2025-05-29",
			EOLDate: "2030-04-23", LTS: true, Codename: "Focal Fossa", Link: "https://wiki.ubuntu.com/Releases"},
		"ubuntu-22.04": {Cycle: "22.04 LTS", ReleaseDate: "2022-04-21", SupportEndDate: "2027-06-01",
			EOLDate: "2032-04-21", LTS: true, Codename: "Jammy Jellyfish", Link: "https://wiki.ubuntu.com/Releases"},
		"ubuntu-24.04": {Cycle: "24.04 LTS", ReleaseDate: "2024-04-25", SupportEndDate: "2029-05-31",
			EOLDate: "2034-04-25", LTS: true, Codename: "Noble Numbat", Link: "https://wiki.ubuntu.com/Releases"},
	})

	u := &Ubuntu{deps: deps, urls: urls}
	u.Base = agent.NewBase("ubuntu",
		[]string{"ubuntu", "canonical", "focal", "jammy", "noble", "bionic"},
		urls, static, u.scrape, deps)
	return u
}

func (u *Ubuntu) scrape(ctx context.Context, software, version string) (*agent.ScrapeResult, error) {
	return scrapeURLs(u.deps, u.urls, parseUbuntuReleases)(ctx, software, version)
}

// parseUbuntuReleases walks the wiki release tables for a row whose
// version column is compatible with the requested version.
func parseUbuntuReleases(doc *goquery.Document, _ string, version string) *agent.ScrapeResult {
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		versionCol := scrape.HeaderIndex(header, "version")
		eolCol := scrape.HeaderIndex(header, "end of standard support", "end of support", "end of life", "eol")
		releaseCol := scrape.HeaderIndex(header, "release")
		codenameCol := scrape.HeaderIndex(header, "code name", "codename")
		if versionCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(versionCol)
			if cycle == "" || (version != "" && !agent.VersionsCompatible(version, cycle)) {
				continue
			}
			eol := dateparse.ParseISO(row.Cell(eolCol))
			release := dateparse.ParseISO(row.Cell(releaseCol))
			if eol == "" && release == "" {
				continue
			}
			result := &agent.ScrapeResult{
				Cycle:       cycle,
				EOLDate:     eol,
				ReleaseDate: release,
			}
			if codename := row.Cell(codenameCol); codename != "" {
				result.Extra = map[string]any{"codename": codename}
			}
			return result
		}
	}
	return nil
}

// BulkFetch downloads the release listing once and caches every row.
func (u *Ubuntu) BulkFetch(ctx context.Context) (int, error) {
	start := time.Now()
	source := u.urls[0]
	doc, err := u.deps.Fetcher.GetDocument(ctx, source.URL)
	if err != nil {
		u.recordBulk(start, source.URL, 0, true)
		return 0, err
	}

	cached := 0
	for _, rows := range scrape.Tables(doc) {
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		versionCol := scrape.HeaderIndex(header, "version")
		eolCol := scrape.HeaderIndex(header, "end of standard support", "end of support", "end of life", "eol")
		if versionCol < 0 || eolCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			cycle := row.Cell(versionCol)
			eol := dateparse.ParseISO(row.Cell(eolCol))
			if cycle == "" || eol == "" {
				continue
			}
			versionToken := strings.Fields(cycle)[0]
			u.CacheScraped(ctx, "ubuntu", versionToken, &agent.ScrapeResult{
				Cycle:     cycle,
				EOLDate:   eol,
				SourceURL: source.URL,
			})
			cached++
		}
	}
	if cached == 0 {
		u.recordBulk(start, source.URL, 0, false)
		return 0, errNoListing
	}
	u.recordBulk(start, source.URL, cached, false)
	return cached, nil
}

func (u *Ubuntu) recordBulk(start time.Time, url string, records int, failed bool) {
	if u.deps.Telemetry == nil {
		return
	}
	u.deps.Telemetry.RecordRequest(u.Name(), telemetry.Sample{
		Duration:         time.Since(start),
		URL:              url,
		Error:            failed,
		RecordsExtracted: records,
	})
}
