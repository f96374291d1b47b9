package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Deals</title>
	<item>
		<title>Robot Vacuum for $199</title>
		<link>https://deals.test/vacuum</link>
		<description>&lt;b&gt;Great deal&lt;/b&gt; on a robot vacuum, today only.</description>
		<pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Mechanical Keyboard for $59</title>
		<link>https://deals.test/keyboard</link>
		<description>RGB mechanical keyboard with hot-swap switches.</description>
	</item>
	<item>
		<title></title>
		<link>https://deals.test/untitled</link>
		<description>No title, gets dropped.</description>
	</item>
</channel>
</rss>`

func rssServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := rssServer(t, http.StatusOK, sampleRSS)

	f := NewRSSFetcher([]string{srv.URL}, WithRateLimit(1000))

	deals, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, "Robot Vacuum for $199", deals[0].Title)
	assert.Equal(t, "https://deals.test/vacuum", deals[0].URL)
	assert.Equal(t, "Great deal on a robot vacuum, today only.", deals[0].Summary)
	assert.False(t, deals[0].Published.IsZero())

	assert.Equal(t, "Mechanical Keyboard for $59", deals[1].Title)
	assert.True(t, deals[1].Published.IsZero())
}

func TestFetchSkipsFailedFeed(t *testing.T) {
	good := rssServer(t, http.StatusOK, sampleRSS)
	bad := rssServer(t, http.StatusInternalServerError, "boom")

	f := NewRSSFetcher([]string{bad.URL, good.URL}, WithRateLimit(1000))

	deals, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, deals, 2)
}

func TestFetchAllFeedsFailed(t *testing.T) {
	bad := rssServer(t, http.StatusInternalServerError, "boom")

	f := NewRSSFetcher([]string{bad.URL, bad.URL}, WithRateLimit(1000))

	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all feeds failed")
}

func TestFetchNoFeeds(t *testing.T) {
	f := NewRSSFetcher(nil)

	deals, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestFetchPreservesFeedOrder(t *testing.T) {
	first := rssServer(t, http.StatusOK, `<?xml version="1.0"?><rss version="2.0"><channel><title>A</title>
		<item><title>First</title><link>https://deals.test/1</link></item></channel></rss>`)
	second := rssServer(t, http.StatusOK, `<?xml version="1.0"?><rss version="2.0"><channel><title>B</title>
		<item><title>Second</title><link>https://deals.test/2</link></item></channel></rss>`)

	f := NewRSSFetcher([]string{first.URL, second.URL}, WithRateLimit(1000))

	deals, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "First", deals[0].Title)
	assert.Equal(t, "Second", deals[1].Title)
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "no markup here", want: "no markup here"},
		{name: "tags", input: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{name: "collapses_whitespace", input: "  a \n\n b  ", want: "a b"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanSummary(tt.input))
		})
	}
}
