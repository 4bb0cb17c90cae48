// Package marketdata talks to Finnhub: the US symbol catalogue and
// point-in-time quotes used by the scan loop.
package marketdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"grandmaster/pkg/apierr"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// ErrNoQuote marks a symbol with no usable quote this cycle (missing or
// non-positive price). It is a quiet omission, never fatal.
var ErrNoQuote = errors.New("no usable quote")

// Quote is one point-in-time observation for a symbol. Price is always
// positive for a quote returned by this package.
type Quote struct {
	Symbol       string
	Price        float64
	DayChangePct float64
}

type Config struct {
	Token   string
	BaseURL string // defaults to DefaultBaseURL
}

type Client struct {
	config    Config
	catalogue *http.Client
	quotes    *http.Client
	logger    *zap.Logger
}

func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Client{
		config:    config,
		catalogue: &http.Client{Timeout: 30 * time.Second},
		quotes:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type catalogueEntry struct {
	Symbol string `json:"symbol"`
}

// SymbolCatalogue fetches the full US symbol list, filtered to
// uppercase-ASCII tickers, de-duplicated and sorted.
func (c *Client) SymbolCatalogue() ([]string, error) {
	u := fmt.Sprintf("%s/stock/symbol?exchange=US&token=%s", c.config.BaseURL, url.QueryEscape(c.config.Token))

	resp, err := c.catalogue.Get(u)
	if err != nil {
		return nil, apierr.NewTransportError("finnhub symbol catalogue", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewTransportError("finnhub symbol catalogue", resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewTransportError("finnhub symbol catalogue", 0, err)
	}

	var entries []catalogueEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, apierr.NewDataError("finnhub symbol catalogue", err)
	}

	seen := make(map[string]bool, len(entries))
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Symbol == "" || !isUpperASCII(e.Symbol) || seen[e.Symbol] {
			continue
		}
		seen[e.Symbol] = true
		symbols = append(symbols, e.Symbol)
	}
	sort.Strings(symbols)

	c.logger.Info("fetched symbol catalogue", zap.Int("symbols", len(symbols)))
	return symbols, nil
}

type finnhubQuote struct {
	Current      float64 `json:"c"`
	DayChangePct float64 `json:"dp"`
}

// Quote fetches the current quote for one symbol. HTTP errors come back
// as TransportError, undecodable bodies as DataError, and a missing or
// non-positive price as ErrNoQuote.
func (c *Client) Quote(symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", c.config.BaseURL, url.QueryEscape(symbol), url.QueryEscape(c.config.Token))

	resp, err := c.quotes.Get(u)
	if err != nil {
		return Quote{}, apierr.NewTransportError("finnhub quote "+symbol, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, apierr.NewTransportError("finnhub quote "+symbol, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, apierr.NewTransportError("finnhub quote "+symbol, 0, err)
	}

	var q finnhubQuote
	if err := json.Unmarshal(body, &q); err != nil {
		// Throttled responses occasionally come back truncated; try one
		// repair pass before giving up on the symbol.
		repaired, repairErr := jsonrepair.JSONRepair(string(body))
		if repairErr != nil {
			return Quote{}, apierr.NewDataError("finnhub quote "+symbol, err)
		}
		if err := json.Unmarshal([]byte(repaired), &q); err != nil {
			return Quote{}, apierr.NewDataError("finnhub quote "+symbol, err)
		}
	}

	if q.Current <= 0 {
		return Quote{}, ErrNoQuote
	}

	return Quote{
		Symbol:       symbol,
		Price:        q.Current,
		DayChangePct: q.DayChangePct,
	}, nil
}

// isUpperASCII reports whether s is ASCII with at least one uppercase
// letter and no lowercase letters.
func isUpperASCII(s string) bool {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b > 127 {
			return false
		}
		if b >= 'a' && b <= 'z' {
			return false
		}
		if b >= 'A' && b <= 'Z' {
			hasUpper = true
		}
	}
	return hasUpper
}
