package vendors

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

const ubuntuReleasesHTML = `
<html><body>
<table>
 <tr><th>Version</th><th>Code name</th><th>Release</th><th>End of Standard Support</th></tr>
 <tr><td>Ubuntu 25.04</td><td>Plucky Puffin</td><td>April 17, 2025</td><td>January 2026</td></tr>
 <tr><td>Ubuntu 24.04 LTS</td><td>Noble Numbat</td><td>April 25, 2024</td><td>May 31, 2029</td></tr>
 <tr><td>Ubuntu 22.04 LTS</td><td>Jammy Jellyfish</td><td>April 21, 2022</td><td>June 1, 2027</td></tr>
</table>
</body></html>`

func TestParseUbuntuReleases(t *testing.T) {
	result := parseUbuntuReleases(doc(t, ubuntuReleasesHTML), "ubuntu", "22.04")
	require.NotNil(t, result)
	assert.Equal(t, "Ubuntu 22.04 LTS", result.Cycle)
	assert.Equal(t, "2027-06-01", result.EOLDate)
	assert.Equal(t, "2022-04-21", result.ReleaseDate)
	assert.Equal(t, "Jammy Jellyfish", result.Extra["codename"])
}

func TestParseUbuntuReleases_NoMatchingVersion(t *testing.T) {
	assert.Nil(t, parseUbuntuReleases(doc(t, ubuntuReleasesHTML), "ubuntu", "14.04"))
}

func TestParseUbuntuReleases_VersionlessTakesFirstRow(t *testing.T) {
	result := parseUbuntuReleases(doc(t, ubuntuReleasesHTML), "ubuntu", "")
	require.NotNil(t, result)
	assert.Equal(t, "Ubuntu 25.04", result.Cycle)
}

const microsoftLifecycleHTML = `
<html><body>
<table>
 <tr><th>Product</th><th>Start Date</th><th>Mainstream End Date</th><th>Extended End Date</th></tr>
 <tr><td>Windows Server 2012 R2</td><td>Nov 25, 2013</td><td>Oct 9, 2018</td><td>Oct 10, 2023</td></tr>
 <tr><td>Windows Server 2016</td><td>Oct 15, 2016</td><td>Jan 11, 2022</td><td>Jan 12, 2027</td></tr>
</table>
</body></html>`

func TestParseMicrosoftLifecycle(t *testing.T) {
	result := parseMicrosoftLifecycle(doc(t, microsoftLifecycleHTML), "Windows Server", "2016")
	require.NotNil(t, result)
	assert.Equal(t, "2027-01-12", result.EOLDate)
	assert.Equal(t, "2022-01-11", result.SupportEndDate)
	assert.Equal(t, "2016-10-15", result.ReleaseDate)
}

func TestParseMicrosoftLifecycle_ProductNotListed(t *testing.T) {
	assert.Nil(t, parseMicrosoftLifecycle(doc(t, microsoftLifecycleHTML), "Exchange Server", "2019"))
}

const redhatErrataHTML = `
<html><body>
<table>
 <tr><th>Version</th><th>Full support</th><th>End of Maintenance Support</th></tr>
 <tr><td>RHEL 9</td><td>May 31, 2027</td><td>May 31, 2032</td></tr>
 <tr><td>RHEL 8</td><td>May 31, 2024</td><td>May 31, 2029</td></tr>
</table>
</body></html>`

func TestParseRedHatErrata(t *testing.T) {
	result := parseRedHatErrata(doc(t, redhatErrataHTML), "rhel", "8.9")
	require.NotNil(t, result)
	assert.Equal(t, "RHEL 8", result.Cycle)
	assert.Equal(t, "2029-05-31", result.EOLDate)
	assert.Equal(t, "2024-05-31", result.SupportEndDate)
}

func TestParseRedHatErrata_RequiresVersion(t *testing.T) {
	// A versionless query cannot pick a major safely.
	assert.Nil(t, parseRedHatErrata(doc(t, redhatErrataHTML), "rhel", ""))
}

const lifecycleMirrorHTML = `
<html><body>
<table>
 <tr><th>Cycle</th><th>Released</th><th>Active Support</th><th>Security Support</th></tr>
 <tr><td>8.4</td><td>30 April 2024</td><td>30 April 2029</td><td>30 April 2032</td></tr>
 <tr><td>8.0</td><td>19 April 2018</td><td>30 April 2025</td><td>30 April 2026</td></tr>
 <tr><td>5.7</td><td>21 October 2015</td><td>31 October 2020</td><td>31 October 2023</td></tr>
</table>
</body></html>`

func TestParseLifecycleMirror(t *testing.T) {
	result := parseLifecycleMirror(doc(t, lifecycleMirrorHTML), "mysql", "8.0.36")
	require.NotNil(t, result)
	assert.Equal(t, "8.0", result.Cycle)
	assert.Equal(t, "2026-04-30", result.EOLDate)
	assert.Equal(t, "2025-04-30", result.SupportEndDate)
	assert.Equal(t, "2018-04-19", result.ReleaseDate)
}

const postgresVersioningHTML = `
<html><body>
<table>
 <tr><th>Version</th><th>Current minor</th><th>Supported</th><th>First Release</th><th>Final Release</th></tr>
 <tr><td>16</td><td>16.1</td><td>Yes</td><td>September 14, 2023</td><td>November 9, 2028</td></tr>
 <tr><td>15</td><td>15.5</td><td>Yes</td><td>October 13, 2022</td><td>November 11, 2027</td></tr>
 <tr><td>12</td><td>12.17</td><td>Yes</td><td>October 3, 2019</td><td>November 14, 2024</td></tr>
</table>
</body></html>`

func TestParsePostgresVersioning(t *testing.T) {
	result := parsePostgresVersioning(doc(t, postgresVersioningHTML), "postgresql", "15.4")
	require.NotNil(t, result)
	assert.Equal(t, "15", result.Cycle)
	assert.Equal(t, "2027-11-11", result.EOLDate)
	assert.Equal(t, "2022-10-13", result.ReleaseDate)
}

func TestPostgresRows_AllMajors(t *testing.T) {
	rows := postgresRows(doc(t, postgresVersioningHTML))
	require.Len(t, rows, 3)
	assert.Equal(t, "16", rows[0].Cycle)
	assert.Equal(t, "12", rows[2].Cycle)
}

const phpSupportedHTML = `
<html><body>
<table>
 <tr><th>Branch</th><th>Initial Release</th><th>Active Support Until</th><th>Security Support Until</th></tr>
 <tr><td>8.3</td><td>23 Nov 2023</td><td>31 Dec 2025</td><td>31 Dec 2027</td></tr>
 <tr><td>8.2</td><td>8 Dec 2022</td><td>31 Dec 2024</td><td>31 Dec 2026</td></tr>
</table>
</body></html>`

func TestParsePHPVersions(t *testing.T) {
	result := parsePHPVersions(doc(t, phpSupportedHTML), "php", "8.2.14")
	require.NotNil(t, result)
	assert.Equal(t, "8.2", result.Cycle)
	assert.Equal(t, "2026-12-31", result.EOLDate)
	assert.Equal(t, "2024-12-31", result.SupportEndDate)
}

const pythonVersionsHTML = `
<html><body>
<table>
 <tr><th>Branch</th><th>Schedule</th><th>Status</th><th>First release</th><th>End of life</th></tr>
 <tr><td>3.12</td><td>PEP 693</td><td>bugfix</td><td>2023-10-02</td><td>2028-10</td></tr>
 <tr><td>3.11</td><td>PEP 664</td><td>security</td><td>2022-10-24</td><td>2027-10</td></tr>
</table>
</body></html>`

func TestParsePythonVersions(t *testing.T) {
	result := parsePythonVersions(doc(t, pythonVersionsHTML), "python", "3.11.7")
	require.NotNil(t, result)
	assert.Equal(t, "3.11", result.Cycle)
	// Month-granularity dates resolve to the last day of the month.
	assert.Equal(t, "2027-10-31", result.EOLDate)
}

const tomcatWhichVersionHTML = `
<html><body>
<table>
 <tr><th>Version</th><th>First Release</th><th>End of Life</th></tr>
 <tr><td>11.0.x</td><td>2024-10-09</td><td></td></tr>
 <tr><td>10.1.x</td><td>2022-09-23</td><td>31 December 2027</td></tr>
 <tr><td>9.0.x</td><td>2018-01-18</td><td>31 December 2027</td></tr>
</table>
</body></html>`

func TestParseApacheVersions(t *testing.T) {
	result := parseApacheVersions(doc(t, tomcatWhichVersionHTML), "tomcat", "10.1.16")
	require.NotNil(t, result)
	assert.Equal(t, "10.1.x", result.Cycle)
	assert.Equal(t, "2027-12-31", result.EOLDate)
}

func TestParseApacheVersions_SkipsRowsWithoutEOL(t *testing.T) {
	// 11.0.x has no declared EOL; a versionless query falls through to the
	// first row that carries a date.
	result := parseApacheVersions(doc(t, tomcatWhichVersionHTML), "tomcat", "")
	require.NotNil(t, result)
	assert.Equal(t, "10.1.x", result.Cycle)
}

func TestParsers_EmptyDocument(t *testing.T) {
	empty := doc(t, "<html><body><p>no tables here</p></body></html>")
	assert.Nil(t, parseUbuntuReleases(empty, "ubuntu", "22.04"))
	assert.Nil(t, parseMicrosoftLifecycle(empty, "windows", "2019"))
	assert.Nil(t, parseRedHatErrata(empty, "rhel", "8"))
	assert.Nil(t, parseLifecycleMirror(empty, "mysql", "8.0"))
	assert.Nil(t, parsePostgresVersioning(empty, "postgresql", "15"))
	assert.Nil(t, parsePHPVersions(empty, "php", "8.2"))
	assert.Nil(t, parsePythonVersions(empty, "python", "3.11"))
	assert.Nil(t, parseApacheVersions(empty, "tomcat", "10.1"))
}
