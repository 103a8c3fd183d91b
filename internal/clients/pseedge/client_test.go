package pseedge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEdgeStub builds an httptest server imitating the EDGE endpoints the
// client touches for chart retrieval.
func newEdgeStub(t *testing.T, chartData []map[string]interface{}) (*httptest.Server, *int) {
	t.Helper()
	autocompleteCalls := 0
	mux := http.NewServeMux()

	mux.HandleFunc("/autoComplete/searchCompanyNameSymbol.ax", func(w http.ResponseWriter, r *http.Request) {
		autocompleteCalls++
		require.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		term := r.URL.Query().Get("term")
		if term != "JFC" {
			json.NewEncoder(w).Encode([]interface{}{})
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"cmpyId": 86, "cmpyNm": "Jollibee Foods Corporation", "symbolValue": "JFC"},
			{"cmpyId": 99, "cmpyNm": "Not Jollibee", "symbolValue": "JFCX"},
		})
	})

	mux.HandleFunc("/companyPage/stockData.do", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "86", r.URL.Query().Get("cmpy_id"))
		fmt.Fprint(w, `<html><body>
			<select name="security_id">
				<option value="146">JFC Common</option>
				<option value="147">JFC Other</option>
			</select>
		</body></html>`)
	})

	mux.HandleFunc("/common/DisclosureCht.ax", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "86", req["cmpy_id"])
		require.Equal(t, "146", req["security_id"])
		json.NewEncoder(w).Encode(map[string]interface{}{"chartData": chartData})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &autocompleteCalls
}

func TestGetOHLCV(t *testing.T) {
	// out of order, with a duplicated latest session and one bad date
	server, autocompleteCalls := newEdgeStub(t, []map[string]interface{}{
		{"OPEN": 251.0, "HIGH": 255.0, "LOW": 250.0, "CLOSE": 254.0, "VALUE": 1.2e8, "CHART_DATE": "Aug 25, 2026 00:00:00"},
		{"OPEN": 248.0, "HIGH": 252.0, "LOW": 247.0, "CLOSE": 251.0, "VALUE": 9.5e7, "CHART_DATE": "Aug 24, 2026 00:00:00"},
		{"OPEN": 999.0, "HIGH": 999.0, "LOW": 999.0, "CLOSE": 999.0, "VALUE": 1.0, "CHART_DATE": "Aug 25, 2026 00:00:00"},
		{"OPEN": 1.0, "HIGH": 1.0, "LOW": 1.0, "CLOSE": 1.0, "VALUE": 1.0, "CHART_DATE": "not a date"},
	})

	client := NewClient(WithBaseURL(server.URL))
	bars := client.GetOHLCV(context.Background(), "jfc", 365)

	require.Len(t, bars, 2)
	// ascending by date
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.Equal(t, 251.0, bars[0].Close)
	// the first occurrence of a duplicated date wins
	assert.Equal(t, 254.0, bars[1].Close)
	assert.Equal(t, 1.2e8, bars[1].Volume)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), bars[1].Date)

	// id pair resolution is cached across calls
	_ = client.GetOHLCV(context.Background(), "JFC", 30)
	assert.Equal(t, 1, *autocompleteCalls)
}

func TestGetOHLCV_UnknownSymbolReturnsEmpty(t *testing.T) {
	server, _ := newEdgeStub(t, nil)

	client := NewClient(WithBaseURL(server.URL))
	bars := client.GetOHLCV(context.Background(), "ZZZZ", 365)
	assert.Empty(t, bars)
}

func TestGetOHLCV_ServerDownReturnsEmpty(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	bars := client.GetOHLCV(context.Background(), "JFC", 365)
	assert.Empty(t, bars)
}

func TestParseForm61(t *testing.T) {
	html := `<html><body><table>
		<tr><td>CREIT</td><td>PSE Disclosure Form 6-1 - Declaration of Cash Dividends</td></tr>
		<tr><td>Amount of Cash Dividend Per Share</td><td>Php 0.049</td></tr>
		<tr><td>Ex-Date</td><td>: Sep 10, 2026</td></tr>
		<tr><td>Record Date</td><td>Sep 15, 2026</td></tr>
		<tr><td>Payment Date</td><td>Oct 2, 2026</td></tr>
	</table></body></html>`

	decl, ok := parseForm61(html)
	require.True(t, ok)
	assert.Equal(t, "CREIT", decl.Symbol)
	assert.Equal(t, "Php 0.049", decl.AmountPerShare)
	assert.Equal(t, "Sep 10, 2026", decl.ExDate)
	assert.Equal(t, "Sep 15, 2026", decl.RecordDate)
	assert.Equal(t, "Oct 2, 2026", decl.PaymentDate)
}

func TestParseForm61_NoSymbol(t *testing.T) {
	_, ok := parseForm61("<html><body>Nothing relevant here</body></html>")
	assert.False(t, ok)
}

func TestParseDisclosureRows(t *testing.T) {
	html := `<table>
		<tr><td><a href="#" onclick="openPopup('2026-08123')">Declaration of Cash Dividends</a></td><td class="alignC">Aug 20, 2026</td></tr>
		<tr><td><a href="#" onclick="openPopup('2026-08101')">Declaration of Cash Dividends</a></td><td class="alignC">Aug 18, 2026</td></tr>
		<tr><td>No popup in this row</td></tr>
	</table>`

	ids, dates := parseDisclosureRows(html)
	assert.Equal(t, []string{"2026-08123", "2026-08101"}, ids)
	assert.Equal(t, []string{"Aug 20, 2026", "Aug 18, 2026"}, dates)
}

func TestGetRecentDividendDeclarations(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("/companyDisclosures/search.ax", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "Declaration of Cash Dividends", r.FormValue("tmplNm"))
		fmt.Fprint(w, `<table>
			<tr><td><a onclick="openPopup('disc-1')">x</a></td><td class="alignC">Aug 21, 2026</td></tr>
			<tr><td><a onclick="openPopup('disc-2')">x</a></td><td class="alignC">Aug 19, 2026</td></tr>
		</table>`)
	})

	mux.HandleFunc("/openDiscViewer.do", func(w http.ResponseWriter, r *http.Request) {
		edgeNo := r.URL.Query().Get("edge_no")
		fmt.Fprintf(w, `<iframe src="/downloadHtml.do?file_id=%s"></iframe>`,
			map[string]string{"disc-1": "111", "disc-2": "222"}[edgeNo])
	})

	mux.HandleFunc("/downloadHtml.do", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("file_id") == "111" {
			// filing for a different company — must be skipped
			fmt.Fprint(w, `<p>ALI PSE Disclosure Form 6-1</p><p>Amount of Cash Dividend Per Share 0.20</p>`)
			return
		}
		fmt.Fprint(w, `<p>CREIT PSE Disclosure Form 6-1</p>
			<p>Amount of Cash Dividend Per Share Php 0.049</p>
			<p>Ex-Date : Sep 10, 2026</p>`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	decls := client.GetRecentDividendDeclarations(context.Background(), "creit", 3)

	require.Len(t, decls, 1)
	assert.Equal(t, "CREIT", decls[0].Symbol)
	assert.Equal(t, "Php 0.049", decls[0].AmountPerShare)
	assert.Equal(t, "Sep 10, 2026", decls[0].ExDate)
	assert.Equal(t, "Aug 19, 2026", decls[0].AnnounceDate)
}

func TestGetRecentDividendDeclarations_SearchDownReturnsEmpty(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	decls := client.GetRecentDividendDeclarations(context.Background(), "CREIT", 3)
	assert.Empty(t, decls)
}
