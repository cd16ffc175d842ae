package vendors

import (
	"github.com/codeready-toolchain/eolscout/pkg/agent"
)

// NewVMware creates the agent for ESXi, vCenter and vSphere. Broadcom's
// lifecycle matrix is rendered entirely client side, so the HTTP scraper
// stays disabled and lookups beyond the static table land on the browser
// fallback agent.
func NewVMware(deps agent.Deps) agent.Agent {
	urls := []agent.SourceURL{
		{URL: "https://support.broadcom.com/group/ecx/productlifecycle", Description: "Broadcom product lifecycle", Priority: 1, Active: false},
		{URL: "https://endoflife.date/esxi", Description: "ESXi lifecycle mirror", Priority: 2, Active: true},
	}
	static := agent.NewStaticTable("esxi", map[string]agent.Cycle{
		"esxi-6.5": {Cycle: "6.5", ReleaseDate: "2016-11-15", SupportEndDate: "2022-10-15",
			EOLDate: "2023-11-15", Link: "https://endoflife.date/esxi"},
		"esxi-6.7": {Cycle: "6.7", ReleaseDate: "2018-04-17", SupportEndDate: "2022-10-15",
			EOLDate: "2023-11-15", Link: "https://endoflife.date/esxi"},
		"esxi-7.0": {Cycle: "7.0", ReleaseDate: "2020-04-02", SupportEndDate: "2025-10-02",
			EOLDate: "2027-10-02", Link: "https://endoflife.date/esxi"},
		"esxi-8.0": {Cycle: "8.0", ReleaseDate: "2022-10-11", SupportEndDate: "2027-10-11",
			EOLDate: "2029-10-11", Link: "https://endoflife.date/esxi"},
		"vcenter-7.0": {Cycle: "7.0", ReleaseDate: "2020-04-02", SupportEndDate: "2025-10-02",
			EOLDate: "2027-10-02", Link: "https://endoflife.date/vcenter"},
		"vcenter-8.0": {Cycle: "8.0", ReleaseDate: "2022-10-11", SupportEndDate: "2027-10-11",
			EOLDate: "2029-10-11", Link: "https://endoflife.date/vcenter"},
	})

	return agent.NewBase("vmware",
		[]string{"vmware", "esxi", "vcenter", "vsphere"},
		urls, static, scrapeURLs(deps, urls, parseLifecycleMirror), deps)
}
