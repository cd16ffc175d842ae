package vendors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

func testDeps() agent.Deps {
	return agent.Deps{
		Cache:     cache.New(nil, nil),
		Telemetry: telemetry.NewCollector(nil),
	}
}

func TestRegistry_UniqueNamesAndOrder(t *testing.T) {
	agents := Registry(testDeps())
	require.Len(t, agents, 15)

	seen := map[string]bool{}
	for _, a := range agents {
		assert.False(t, seen[a.Name()], "duplicate agent name %q", a.Name())
		seen[a.Name()] = true
	}
	assert.Equal(t, "microsoft", agents[0].Name())
	assert.Equal(t, "endoflife", agents[len(agents)-1].Name(), "generic agent must come last")
}

func TestRegistry_Relevance(t *testing.T) {
	agents := Registry(testDeps())
	byName := map[string]agent.Agent{}
	for _, a := range agents {
		byName[a.Name()] = a
	}

	cases := []struct {
		agent    string
		software string
		want     bool
	}{
		{"microsoft", "Windows Server 2019", true},
		{"microsoft", "Microsoft SQL Server 2016", true},
		{"microsoft", "Ubuntu Server", false},
		{"redhat", "Red Hat Enterprise Linux 8", true},
		{"redhat", "CentOS Stream", true},
		{"ubuntu", "Ubuntu 22.04 LTS", true},
		{"debian", "Debian GNU/Linux", true},
		{"apache", "Apache Tomcat", true},
		{"apache", "Apache Kafka", true},
		{"nodejs", "Node.js", true},
		{"postgresql", "PostgreSQL Server", true},
		{"mysql", "MySQL Community Server", true},
		{"php", "PHP-FPM", true},
		{"python", "Python 3", true},
		{"java", "OpenJDK Runtime", true},
		{"endoflife", "Some Unknown Product", true},
	}
	for _, tc := range cases {
		a, ok := byName[tc.agent]
		require.True(t, ok, "agent %q missing from registry", tc.agent)
		assert.Equal(t, tc.want, a.IsRelevant(tc.software),
			"agent=%s software=%q", tc.agent, tc.software)
	}
}

func TestStaticLookups_CommonInventoryEntries(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		newAgent func(agent.Deps) agent.Agent
		software string
		version  string
		wantEOL  string
	}{
		{func(d agent.Deps) agent.Agent { return NewUbuntu(d) }, "Ubuntu", "20.04", "2030-04-23"},
		{func(d agent.Deps) agent.Agent { return NewMicrosoft(d) }, "Windows Server 2012 R2", "", "2023-10-10"},
		{func(d agent.Deps) agent.Agent { return NewApache(d) }, "Apache Tomcat", "10.1.16", "2027-12-31"},
		{func(d agent.Deps) agent.Agent { return NewRedHat(d) }, "RHEL", "7.9", "2028-06-30"},
		{func(d agent.Deps) agent.Agent { return NewNodeJS(d) }, "Node.js", "18.19.0", "2025-04-30"},
		{func(d agent.Deps) agent.Agent { return NewPostgreSQL(d) }, "PostgreSQL", "14.10", "2026-11-12"},
		{func(d agent.Deps) agent.Agent { return NewMySQL(d) }, "MySQL", "5.7.44", "2023-10-31"},
		{func(d agent.Deps) agent.Agent { return NewPHP(d) }, "PHP", "8.2.14", "2026-12-31"},
		{func(d agent.Deps) agent.Agent { return NewPython(d) }, "Python", "3.11.7", "2027-10-31"},
		{func(d agent.Deps) agent.Agent { return NewJava(d) }, "Java", "17.0.9", "2029-09-30"},
		{func(d agent.Deps) agent.Agent { return NewDebian(d) }, "Debian", "12", "2028-06-30"},
		{func(d agent.Deps) agent.Agent { return NewSUSE(d) }, "SLES", "15", "2034-07-31"},
		{func(d agent.Deps) agent.Agent { return NewOracle(d) }, "Oracle Linux", "8.9", "2032-07-31"},
		{func(d agent.Deps) agent.Agent { return NewVMware(d) }, "VMware ESXi", "7.0.3", "2027-10-02"},
	}
	for _, tc := range cases {
		a := tc.newAgent(testDeps())
		envelope := a.GetEOLData(ctx, tc.software, tc.version)
		require.True(t, envelope.Success, "%s %s via %s: %+v", tc.software, tc.version, a.Name(), envelope.Error)
		assert.Equal(t, tc.wantEOL, envelope.EOLDate, "%s %s", tc.software, tc.version)
		assert.Equal(t, models.DataSourceStatic, envelope.DataSource)
	}
}

func TestStaticLookup_WindowsServer2012R2_IsEOL(t *testing.T) {
	m := NewMicrosoft(testDeps())
	envelope := m.GetEOLData(context.Background(), "Windows Server 2012 R2", "")
	require.True(t, envelope.Success)
	assert.Equal(t, "2023-10-10", envelope.EOLDate)
	eol, ok := envelope.EOLTime()
	require.True(t, ok)
	assert.True(t, eol.Year() == 2023)
}
