package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetSendsBrowserHeaders(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	c := NewClient(nil)
	body, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestClient_NonOKIsSoftFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(nil)
	_, err := c.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamStatus))
	assert.Contains(t, err.Error(), "429")
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(nil)
	for i := 0; i < 5; i++ {
		_, err := c.Get(context.Background(), server.URL)
		require.Error(t, err)
	}

	// Breaker is now open: the request fails without touching the server.
	_, err := c.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUpstreamStatus), "open breaker short-circuits the request")
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := NewClient(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, server.URL)
	assert.Error(t, err)
}

func TestClient_GetDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Releases</h1></body></html>`))
	}))
	defer server.Close()

	c := NewClient(nil)
	doc, err := c.GetDocument(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Releases", doc.Find("h1").Text())
}

const fixtureTable = `
<html><body>
<table>
  <tr><th>Version</th><th>Released</th><th>End of Life</th></tr>
  <tr><td>20.04 LTS</td><td>2020-04-23</td><td>2030-04-23</td></tr>
  <tr><td>22.04 LTS</td><td>2022-04-21</td><td>2032-04-21</td></tr>
  <tr><td>24.10</td><td>2024-10-10</td></tr>
</table>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestTables_ExtractsRows(t *testing.T) {
	doc := mustDoc(t, fixtureTable)
	tables := Tables(doc)
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 4)
	assert.Equal(t, "20.04 LTS", tables[0][1].Cell(0))
	assert.Equal(t, "2030-04-23", tables[0][1].Cell(2))
}

func TestTableRow_CellOutOfRange(t *testing.T) {
	doc := mustDoc(t, fixtureTable)
	short := Tables(doc)[0][3]
	assert.Equal(t, "", short.Cell(2), "missing cell yields empty string, not a panic")
	assert.Equal(t, "", short.Cell(-1))
}

func TestFindRow_SkipsHeader(t *testing.T) {
	doc := mustDoc(t, fixtureTable)
	row := FindRow(doc, func(first string) bool {
		return strings.HasPrefix(first, "22.04")
	})
	require.NotNil(t, row)
	assert.Equal(t, "2032-04-21", row.Cell(2))

	none := FindRow(doc, func(first string) bool { return first == "Version" })
	assert.Nil(t, none, "header row must not match")
}

func TestHeaderIndex(t *testing.T) {
	doc := mustDoc(t, fixtureTable)
	header := Tables(doc)[0][0]
	assert.Equal(t, 2, HeaderIndex(header, "end of life", "eol"))
	assert.Equal(t, 1, HeaderIndex(header, "released"))
	assert.Equal(t, -1, HeaderIndex(header, "codename"))
}

func TestHeaderIndex_NeedlePriorityBeatsColumnOrder(t *testing.T) {
	header := TableRow{"Product", "Mainstream end date", "Extended end date"}
	assert.Equal(t, 2, HeaderIndex(header, "extended end date", "end date"),
		"the specific needle must win even though a broad match sits in an earlier column")
	assert.Equal(t, 1, HeaderIndex(header, "mainstream end date", "end date"))
}

func TestTables_NoTables(t *testing.T) {
	doc := mustDoc(t, "<html><body><p>no tables here</p></body></html>")
	assert.Nil(t, Tables(doc))
}
