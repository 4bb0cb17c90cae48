package marketdata

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"grandmaster/pkg/apierr"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{Token: "test-token", BaseURL: server.URL}, zap.NewNop())
}

func TestSymbolCatalogueFiltersAndSorts(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/symbol", r.URL.Path)
		assert.Equal(t, "US", r.URL.Query().Get("exchange"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		fmt.Fprint(w, `[
			{"symbol":"MSFT"},
			{"symbol":"brk.b"},
			{"symbol":"AAPL"},
			{"symbol":"AAPL"},
			{"symbol":""},
			{"symbol":"ÅMBI"}
		]`)
	}))

	symbols, err := client.SymbolCatalogue()

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestSymbolCatalogueHTTPError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.SymbolCatalogue()

	var te *apierr.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
}

func TestQuote(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"c": 189.25, "dp": 1.73}`)
	}))

	q, err := client.Quote("AAPL")

	require.NoError(t, err)
	assert.Equal(t, Quote{Symbol: "AAPL", Price: 189.25, DayChangePct: 1.73}, q)
}

func TestQuoteNonPositivePrice(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"c": 0, "dp": 0}`)
	}))

	_, err := client.Quote("DEAD")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestQuoteHTTPErrorIsTransport(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.Quote("AAPL")

	var te *apierr.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusForbidden, te.StatusCode)
}

func TestQuoteRepairsTruncatedBody(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"c": 42.5, "dp": 3.1,`)
	}))

	q, err := client.Quote("AAPL")

	require.NoError(t, err)
	assert.Equal(t, 42.5, q.Price)
	assert.Equal(t, 3.1, q.DayChangePct)
}

func TestBatchQuotesOmitsUnusableSymbols(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "GOOD":
			fmt.Fprint(w, `{"c": 10, "dp": 1}`)
		case "ZERO":
			fmt.Fprint(w, `{"c": 0, "dp": 0}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	quotes := client.BatchQuotes([]string{"GOOD", "ZERO", "FAIL"}, 4)

	require.Len(t, quotes, 1)
	assert.Equal(t, 10.0, quotes["GOOD"].Price)
}

func TestBatchQuotesHonorsConcurrencyCap(t *testing.T) {
	var inFlight, peak int64
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		fmt.Fprint(w, `{"c": 10, "dp": 1}`)
	}))

	symbols := make([]string, 12)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%d", i)
	}
	quotes := client.BatchQuotes(symbols, 3)

	assert.Len(t, quotes, 12)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestIsUpperASCII(t *testing.T) {
	assert.True(t, isUpperASCII("AAPL"))
	assert.True(t, isUpperASCII("BRK.A"))
	assert.False(t, isUpperASCII("brk.a"))
	assert.False(t, isUpperASCII("Aapl"))
	assert.False(t, isUpperASCII(""))
	assert.False(t, isUpperASCII("123"))
	assert.False(t, isUpperASCII("ÅMBI"))
}

// Keep errors.Is behavior stable for callers that branch on omission.
func TestErrNoQuoteIdentity(t *testing.T) {
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", ErrNoQuote), ErrNoQuote))
}
